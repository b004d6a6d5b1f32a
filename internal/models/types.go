package models

type ResourceType string

const (
	ResourceArticle       ResourceType = "article"
	ResourceVideo         ResourceType = "video"
	ResourceCourse        ResourceType = "course"
	ResourceDocumentation ResourceType = "documentation"
	ResourceTutorial      ResourceType = "tutorial"
	ResourceBook          ResourceType = "book"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceArticle, ResourceVideo, ResourceCourse, ResourceDocumentation, ResourceTutorial, ResourceBook:
		return true
	}
	return false
}

type ResourceLanguage string

const (
	LanguageEnglish ResourceLanguage = "en"
	LanguageSpanish ResourceLanguage = "es"
	LanguageFrench  ResourceLanguage = "fr"
	LanguageArabic  ResourceLanguage = "ar"
)

func (l ResourceLanguage) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageSpanish, LanguageFrench, LanguageArabic:
		return true
	}
	return false
}

type ResourceDifficulty string

const (
	DifficultyBeginner     ResourceDifficulty = "beginner"
	DifficultyIntermediate ResourceDifficulty = "intermediate"
	DifficultyAdvanced     ResourceDifficulty = "advanced"
)

func (d ResourceDifficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}
