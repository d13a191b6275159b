package q3bsp

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const unknownClass = "unknown"

// Entity is one brace-delimited block of the entity lump.
type Entity struct {
	ClassName  string
	TargetName string

	Origin    mgl32.Vec3
	HasOrigin bool
	Angle     float32
	HasAngle  bool

	// Properties holds every other key verbatim.
	Properties map[string]string
}

// Value returns the raw string for key, including the typed keys.
func (e *Entity) Value(key string) (string, bool) {
	switch key {
	case "classname":
		return e.ClassName, true
	case "targetname":
		return e.TargetName, e.TargetName != ""
	case "origin":
		if !e.HasOrigin {
			return "", false
		}

		return formatFloats(e.Origin[:]...), true
	case "angle":
		if !e.HasAngle {
			return "", false
		}

		return formatFloats(e.Angle), true
	}

	v, ok := e.Properties[key]

	return v, ok
}

func formatFloats(fs ...float32) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}

	return strings.Join(parts, " ")
}

// Entities groups the entity lump by classname and targetname.
type Entities struct {
	All      []*Entity
	ByClass  map[string][]*Entity
	ByTarget map[string]*Entity
}

// Class returns all entities of the given classname in file order.
func (e *Entities) Class(name string) []*Entity {
	return e.ByClass[name]
}

// Target returns the entity with the given targetname.
// With duplicate names the last one in the file wins.
func (e *Entities) Target(name string) (*Entity, bool) {
	ent, ok := e.ByTarget[name]

	return ent, ok
}

func parseEntities(str string) *Entities {
	out := &Entities{
		ByClass:  make(map[string][]*Entity),
		ByTarget: make(map[string]*Entity),
	}

	var current *Entity

	for _, line := range strings.Split(str, "\n") {
		line = strings.TrimSpace(line)

		if rest, ok := strings.CutPrefix(line, "{"); ok {
			current = &Entity{
				ClassName:  unknownClass,
				Properties: make(map[string]string),
			}
			line = strings.TrimSpace(rest)
		}

		if current == nil {
			continue
		}

		// a block may close on the same line as its last pair
		body, closed := strings.CutSuffix(line, "}")
		if strings.HasPrefix(line, "}") {
			body, closed = "", true
		}

		if k, v, ok := parseKeyValue(strings.TrimSpace(body)); ok {
			current.set(k, v)
		}

		if closed {
			out.add(current)
			current = nil
		}
	}

	return out
}

func (e *Entities) add(ent *Entity) {
	e.All = append(e.All, ent)
	e.ByClass[ent.ClassName] = append(e.ByClass[ent.ClassName], ent)

	if ent.TargetName != "" {
		e.ByTarget[ent.TargetName] = ent
	}
}

// parseKeyValue splits a `"key" "value"` line.
func parseKeyValue(line string) (string, string, bool) {
	kv := strings.Split(line, "\"")
	if len(kv) < 5 || kv[0] != "" || strings.TrimSpace(kv[2]) != "" || kv[1] == "" {
		return "", "", false
	}

	// values may contain quotes of their own; keep everything up to the last one
	value := strings.Join(kv[3:len(kv)-1], "\"")
	if strings.TrimSpace(kv[len(kv)-1]) != "" {
		return "", "", false
	}

	return kv[1], value, true
}

func (e *Entity) set(key, value string) {
	switch key {
	case "classname":
		e.ClassName = value
		return
	case "targetname":
		e.TargetName = value
		return
	case "origin":
		fields := strings.Fields(value)
		if len(fields) == 3 {
			var v mgl32.Vec3

			ok := true
			for i, f := range fields {
				n, err := strconv.ParseFloat(f, 32)
				if err != nil {
					ok = false
					break
				}

				v[i] = float32(n)
			}

			if ok {
				e.Origin = v
				e.HasOrigin = true

				return
			}
		}
	case "angle":
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err == nil {
			e.Angle = float32(n)
			e.HasAngle = true

			return
		}
	}

	e.Properties[key] = value
}
