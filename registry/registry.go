// Package registry holds the closed catalogue of read-only tools and
// write actions the model may use. The catalogue drives prompt generation,
// response repair, validation, and materialization; it is never mutated after
// construction.
package registry

import "slices"

// Field describes one named value in a tool's parameters or an action's payload.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

// Param is a tool parameter.
type Param = Field

// ToolDescriptor is one read-only lookup. StudentSafe tools are the only ones
// offered to read-only callers.
type ToolDescriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params,omitempty"`
	StudentSafe bool    `json:"studentSafe,omitempty"`
}

// ActionDescriptor is one write proposal the model may emit.
//
// RequireOneOf lists groups of fields where at least one member of each group
// must be present, e.g. a module item names its module by id or by name.
type ActionDescriptor struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Fields       []Field    `json:"fields,omitempty"`
	RequireOneOf [][]string `json:"requireOneOf,omitempty"`
	Dangerous    bool       `json:"dangerous,omitempty"`
	Deprecated   bool       `json:"deprecated,omitempty"`
	ReplacedBy   string     `json:"replacedBy,omitempty"`
}

// Required returns the names of the fields marked required.
func (a ActionDescriptor) Required() []string {
	var names []string
	for _, f := range a.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Registry is an immutable index over tool and action descriptors.
type Registry struct {
	tools   []ToolDescriptor
	actions []ActionDescriptor
	toolIdx map[string]int
	actIdx  map[string]int
}

// New builds a Registry from the given descriptors. Later duplicates of a name
// are ignored.
func New(tools []ToolDescriptor, actions []ActionDescriptor) *Registry {
	r := &Registry{
		toolIdx: make(map[string]int, len(tools)),
		actIdx:  make(map[string]int, len(actions)),
	}
	for _, t := range tools {
		if _, dup := r.toolIdx[t.Name]; dup || t.Name == "" {
			continue
		}
		r.toolIdx[t.Name] = len(r.tools)
		r.tools = append(r.tools, cloneTool(t))
	}
	for _, a := range actions {
		if _, dup := r.actIdx[a.Name]; dup || a.Name == "" {
			continue
		}
		r.actIdx[a.Name] = len(r.actions)
		r.actions = append(r.actions, cloneAction(a))
	}
	return r
}

var defaultRegistry = New(catalogueTools, catalogueActions)

// Default returns the built-in course catalogue.
func Default() *Registry {
	return defaultRegistry
}

// Tools returns every tool in catalogue order.
func (r *Registry) Tools() []ToolDescriptor {
	out := make([]ToolDescriptor, len(r.tools))
	for i, t := range r.tools {
		out[i] = cloneTool(t)
	}
	return out
}

// StudentSafeTools returns the subset offered to read-only callers.
func (r *Registry) StudentSafeTools() []ToolDescriptor {
	var out []ToolDescriptor
	for _, t := range r.tools {
		if t.StudentSafe {
			out = append(out, cloneTool(t))
		}
	}
	return out
}

// Actions returns every action in catalogue order, deprecated ones included.
func (r *Registry) Actions() []ActionDescriptor {
	out := make([]ActionDescriptor, len(r.actions))
	for i, a := range r.actions {
		out[i] = cloneAction(a)
	}
	return out
}

func (r *Registry) Tool(name string) (ToolDescriptor, bool) {
	i, ok := r.toolIdx[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return cloneTool(r.tools[i]), true
}

func (r *Registry) Action(name string) (ActionDescriptor, bool) {
	i, ok := r.actIdx[name]
	if !ok {
		return ActionDescriptor{}, false
	}
	return cloneAction(r.actions[i]), true
}

func (r *Registry) IsTool(name string) bool {
	_, ok := r.toolIdx[name]
	return ok
}

func (r *Registry) IsAction(name string) bool {
	_, ok := r.actIdx[name]
	return ok
}

func cloneTool(t ToolDescriptor) ToolDescriptor {
	t.Params = slices.Clone(t.Params)
	return t
}

func cloneAction(a ActionDescriptor) ActionDescriptor {
	a.Fields = slices.Clone(a.Fields)
	if a.RequireOneOf != nil {
		groups := make([][]string, len(a.RequireOneOf))
		for i, g := range a.RequireOneOf {
			groups[i] = slices.Clone(g)
		}
		a.RequireOneOf = groups
	}
	return a
}
