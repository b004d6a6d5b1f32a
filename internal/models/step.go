package models

type Step struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	RoadmapID string `json:"roadmapId"`
	Order     int    `json:"order"`
	TopicID   string `json:"topicId"`
}
