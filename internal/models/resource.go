package models

type Resource struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Link       string             `json:"link"`
	TopicID    string             `json:"topicId"`
	Type       ResourceType       `json:"type"`
	Language   ResourceLanguage   `json:"language"`
	Difficulty ResourceDifficulty `json:"difficulty"`
}
