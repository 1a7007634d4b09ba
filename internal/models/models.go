package models

import "github.com/google/uuid"

// All is the migration set, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Market{},
		&HistoricalRecord{},
		&Submarket{},
		&ForumCategory{},
		&Thread{},
		&Post{},
		&PostLike{},
		&SavedProperty{},
	}
}

func assignID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
