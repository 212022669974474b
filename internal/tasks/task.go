package tasks

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// Task is one task record exactly as the tasks API returned it.
// Only its identifier is ever inspected; everything else passes through untouched.
type Task json.RawMessage

func (t Task) MarshalJSON() ([]byte, error) {
	if len(t) == 0 {
		return []byte("null"), nil
	}
	return t, nil
}

func (t *Task) UnmarshalJSON(b []byte) error {
	*t = append((*t)[:0], b...)
	return nil
}

func (t Task) String() string {
	return string(t)
}

// Decode unmarshals the record into v, typically a *Record.
func (t Task) Decode(v any) error {
	return json.Unmarshal(t, v)
}

// TaskID is a comparable task identifier. The zero value is not a valid id.
type TaskID struct {
	kind gjson.Type
	str  string
	num  float64
}

func (id TaskID) String() string {
	switch id.kind {
	case gjson.String:
		return id.str
	case gjson.Number:
		return strconv.FormatFloat(id.num, 'f', -1, 64)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return ""
	}
}

var idKeys = [...]string{"task_id", "id"}

// ID returns the record's identifier: task_id when present and not null,
// otherwise id. Object or array identifiers never equal anything, so they
// report no identifier.
func (t Task) ID() (TaskID, bool) {
	root := gjson.ParseBytes(t)
	if !root.IsObject() {
		return TaskID{}, false
	}
	for _, key := range idKeys {
		v := field(root, key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		switch v.Type {
		case gjson.String:
			return TaskID{kind: gjson.String, str: v.Str}, true
		case gjson.Number:
			return TaskID{kind: gjson.Number, num: v.Num}, true
		case gjson.True, gjson.False:
			return TaskID{kind: v.Type}, true
		default:
			return TaskID{}, false
		}
	}
	return TaskID{}, false
}

// field returns the last member named key, matching JSON.parse semantics for duplicate keys.
func field(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
		}
		return true
	})
	return out
}

// Record is the typed view of a task as serialized by the tasks service.
type Record struct {
	TaskID        int      `json:"task_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Attachment    *string  `json:"attachment"`
	Deadline      string   `json:"deadline"`
	Status        string   `json:"status"`
	Owner         int      `json:"owner"`
	ProjectID     *int     `json:"project_id"`
	ParentID      *int     `json:"parent_id"`
	Priority      *int     `json:"priority"`
	Collaborators []int    `json:"collaborators"`
	Subtasks      []Record `json:"subtasks"`
	StartDate     *string  `json:"start_date"`
	CompletedDate *string  `json:"completed_date"`
	CreatedAt     string   `json:"created_at"`
	Recurrence    *int     `json:"recurrence"`
}

func (r Record) String() string {
	return fmt.Sprintf("#%d %s [%s]", r.TaskID, r.Title, r.Status)
}
