package models

import "time"

type Comment struct {
	ID        string   `gorm:"type:varchar(36);primaryKey" json:"CommentID"`
	TaskID    string   `gorm:"type:varchar(36);not null" json:"TaskID"`
	UserID    string   `gorm:"type:varchar(36);not null" json:"UserID"`
	Text      string   `gorm:"type:text" json:"Text"`
	FileKeys  []string `gorm:"serializer:json;type:text" json:"FileKeys,omitempty"`
	FileNames []string `gorm:"serializer:json;type:text" json:"FileNames,omitempty"`

	// Legacy single attachment
	FileKey *string `gorm:"type:varchar(1024)" json:"FileKey,omitempty"`
	FileURL *string `gorm:"type:varchar(2048)" json:"FileURL,omitempty"`

	CreatedAt time.Time `json:"CreatedAt"`
}

func (Comment) TableName() string {
	return tableNames.Comments
}

// Attachment is one object key on a comment with its original file name.
type Attachment struct {
	Key  string
	Name string
}

// Attachments lists the comment's object keys in upload order. The legacy single key is
// included when the comment has no key array.
func (c *Comment) Attachments() []Attachment {
	out := make([]Attachment, 0, len(c.FileKeys)+1)
	for i, key := range c.FileKeys {
		if key == "" {
			continue
		}
		name := ""
		if i < len(c.FileNames) {
			name = c.FileNames[i]
		}
		if name == "" {
			name = baseName(key)
		}
		out = append(out, Attachment{Key: key, Name: name})
	}
	if len(c.FileKeys) == 0 && c.FileKey != nil && *c.FileKey != "" {
		out = append(out, Attachment{Key: *c.FileKey, Name: baseName(*c.FileKey)})
	}
	return out
}
