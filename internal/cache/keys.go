package cache

import "strconv"

// Cache kinds. Keys are namespaced by kind so both services can share one
// key space without collisions.
const (
	KindPlace       = "place"
	KindAstroRecord = "astro"
)

// EntityKey addresses a single entity: "kind:id".
func EntityKey(kind string, id int) string {
	return kind + ":" + strconv.Itoa(id)
}

// AllKey addresses the full collection of a kind: "kind:all".
func AllKey(kind string) string {
	return kind + ":all"
}

// ByRelationKey addresses the entities of a kind related to one counterpart:
// "kind:by-relation:<relatedId>".
func ByRelationKey(kind string, relatedID int) string {
	return kind + ":by-relation:" + strconv.Itoa(relatedID)
}

// ByDateNameKey addresses a date+name derived query:
// "kind:by-date-name:<date>:<name>".
func ByDateNameKey(kind, date, name string) string {
	return kind + ":by-date-name:" + date + ":" + name
}
