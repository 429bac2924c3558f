package app

import (
	"strings"

	"pathway-quiz-service/internal/domain"
)

// SectionResolver turns the section at a quiz position into its transport view.
type SectionResolver struct {
	mediaURL string
}

// NewSectionResolver builds a resolver that prefixes stored image paths with mediaURL.
func NewSectionResolver(mediaURL string) *SectionResolver {
	return &SectionResolver{mediaURL: mediaURL}
}

// Resolve returns the view of the section at the 1-based position, or the end
// sentinel when nothing occupies it.
func (r *SectionResolver) Resolve(quiz domain.Quiz, position int) domain.SectionView {
	section, ok := quiz.SectionAt(position)
	if !ok {
		return domain.EndOfQuiz()
	}

	switch section.Kind {
	case domain.KindMultipleChoice:
		options := make([]domain.OptionView, 0, len(section.Options))
		for _, o := range section.Options {
			options = append(options, domain.OptionView{ID: o.ID, Text: o.Text})
		}
		return domain.SectionView{
			Type: domain.SectionMultipleChoice,
			Payload: domain.MultipleChoiceView{
				SID:      section.ID,
				Title:    section.Title,
				Position: section.Position,
				Options:  options,
			},
		}
	case domain.KindFillInBlank:
		sentences := make([]domain.SentenceView, 0, len(section.Sentences))
		for _, s := range section.Sentences {
			sentences = append(sentences, domain.SentenceView{
				ID:     s.ID,
				Before: s.Before,
				Blank:  s.HasBlank(),
				After:  s.After,
			})
		}
		return domain.SectionView{
			Type: domain.SectionFillInBlank,
			Payload: domain.FillInBlankView{
				SID:       section.ID,
				Title:     section.Title,
				Position:  section.Position,
				Sentences: sentences,
			},
		}
	case domain.KindInformation:
		return domain.SectionView{
			Type: domain.SectionInformation,
			Payload: domain.InformationView{
				SID:      section.ID,
				Title:    section.Title,
				Position: section.Position,
				Content:  section.Content,
				Image:    r.imageURL(section.Image),
			},
		}
	}
	return domain.EndOfQuiz()
}

func (r *SectionResolver) imageURL(path string) string {
	if path == "" {
		return domain.NoImage
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") || r.mediaURL == "" {
		return path
	}
	return strings.TrimSuffix(r.mediaURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
