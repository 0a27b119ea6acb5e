package models

// DateLayout is the ISO-8601 calendar date layout used for birth and attendance dates.
const DateLayout = "2006-01-02"

// Person is the common shape shared by students and the administrative user.
type Person struct {
	Name        string `db:"name" json:"name"`
	LastName    string `db:"last_name" json:"last_name"`
	DateOfBirth string `db:"date_of_birth" json:"date_of_birth"`
}

// FullName joins first and last name with a space.
func (p Person) FullName() string {
	if p.LastName == "" {
		return p.Name
	}
	return p.Name + " " + p.LastName
}

// LegacyKey is the name+lastName concatenation older course documents used to
// reference students. It is not unique and only serves to migrate such files.
func (p Person) LegacyKey() string {
	return p.Name + p.LastName
}
