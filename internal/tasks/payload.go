package tasks

import (
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
)

type Shape string

const (
	ShapeFlat  Shape = "flat"
	ShapeSplit Shape = "split"
	ShapeEmpty Shape = "empty"
)

// Payload is a decoded GET /tasks body. It is one of FlatPayload,
// SplitPayload or EmptyPayload.
type Payload interface {
	Shape() Shape
	isPayload()
}

// FlatPayload is {"tasks": [...]}: already final.
type FlatPayload struct {
	Tasks []Task
}

// SplitPayload is {"my_tasks": [...], "team_tasks": {"<group>": [...]}}.
type SplitPayload struct {
	Mine   []Task
	Groups []TeamGroup
}

type TeamGroup struct {
	Key   string
	Tasks []Task
}

// EmptyPayload is any body carrying neither recognized shape.
type EmptyPayload struct{}

func (FlatPayload) Shape() Shape  { return ShapeFlat }
func (SplitPayload) Shape() Shape { return ShapeSplit }
func (EmptyPayload) Shape() Shape { return ShapeEmpty }

func (FlatPayload) isPayload()  {}
func (SplitPayload) isPayload() {}
func (EmptyPayload) isPayload() {}

// Team is the team groups flattened one level, in group order.
func (p SplitPayload) Team() []Task {
	var out []Task
	for _, g := range p.Groups {
		out = append(out, g.Tasks...)
	}
	return out
}

// Merged is Mine followed by Team, before de-duplication.
func (p SplitPayload) Merged() []Task {
	out := make([]Task, 0, len(p.Mine))
	out = append(out, p.Mine...)
	return append(out, p.Team()...)
}

// ParsePayload classifies body. It never fails: malformed parts become empty.
func ParsePayload(body []byte) Payload {
	if !gjson.ValidBytes(body) {
		return EmptyPayload{}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return EmptyPayload{}
	}

	if list := field(root, "tasks"); list.IsArray() {
		return FlatPayload{Tasks: taskList(list)}
	}

	mine, team := field(root, "my_tasks"), field(root, "team_tasks")
	if !mine.Exists() && !team.Exists() {
		return EmptyPayload{}
	}

	p := SplitPayload{Mine: []Task{}}
	if mine.IsArray() {
		p.Mine = taskList(mine)
	}
	if team.IsObject() {
		p.Groups = teamGroups(team)
	}
	return p
}

func taskList(arr gjson.Result) []Task {
	out := make([]Task, 0)
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, Task(v.Raw))
		return true
	})
	return out
}

// teamGroups returns the groups in JavaScript property order: array-index keys
// ascending, then the rest in first-seen order, last value winning. One
// non-array group empties the whole team contribution.
func teamGroups(obj gjson.Result) []TeamGroup {
	var (
		keys   []string
		values = map[string]gjson.Result{}
	)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = v
		return true
	})

	groups := make([]TeamGroup, 0, len(keys))
	for _, key := range keys {
		v := values[key]
		if !v.IsArray() {
			return nil
		}
		groups = append(groups, TeamGroup{Key: key, Tasks: taskList(v)})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, aok := arrayIndex(groups[i].Key)
		b, bok := arrayIndex(groups[j].Key)
		if aok && bok {
			return a < b
		}
		return aok && !bok
	})
	return groups
}

func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}
