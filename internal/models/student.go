package models

// Student represents a learner registered in the roster. Fields never change
// after creation.
type Student struct {
	ID int64 `db:"id" json:"id"`
	Person
}
