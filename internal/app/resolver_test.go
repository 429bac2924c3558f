package app_test

import (
	"testing"

	"pathway-quiz-service/internal/app"
	"pathway-quiz-service/internal/domain"
)

func TestResolveMissingPositionIsEnd(t *testing.T) {
	resolver := app.NewSectionResolver("")
	quiz := sampleQuizzes()[0]

	for _, pos := range []int{-1, 0, 3, 100} {
		view := resolver.Resolve(quiz, pos)
		if !view.IsEnd() {
			t.Fatalf("position %d: expected end sentinel, got %s", pos, view.Type)
		}
		if _, ok := view.Payload.(domain.EndView); !ok {
			t.Fatalf("position %d: expected empty payload, got %T", pos, view.Payload)
		}
	}

	if view := resolver.Resolve(sampleQuizzes()[2], 1); !view.IsEnd() {
		t.Fatalf("empty quiz should resolve to end, got %s", view.Type)
	}
}

func TestResolveUsesPositionNotOrder(t *testing.T) {
	quiz := domain.Quiz{ID: 9, Pathway: domain.PathwayLoans, Sections: []domain.Section{
		{ID: 3, Kind: domain.KindInformation, Title: "third", Position: 5},
		{ID: 1, Kind: domain.KindInformation, Title: "first", Position: 1},
		{ID: 2, Kind: domain.KindInformation, Title: "second", Position: 2},
	}}
	quiz.SortSections()
	resolver := app.NewSectionResolver("")

	cases := map[int]string{1: "first", 2: "second", 5: "third"}
	for pos, title := range cases {
		view := resolver.Resolve(quiz, pos)
		info, ok := view.Payload.(domain.InformationView)
		if !ok || info.Title != title {
			t.Fatalf("position %d: expected %q, got %+v", pos, title, view.Payload)
		}
	}
	if view := resolver.Resolve(quiz, 3); !view.IsEnd() {
		t.Fatalf("gap at position 3 should be the end sentinel")
	}
}

func TestResolveInformationImage(t *testing.T) {
	section := func(image string) domain.Quiz {
		return domain.Quiz{Sections: []domain.Section{
			{ID: 1, Kind: domain.KindInformation, Position: 1, Image: image},
		}}
	}

	cases := []struct {
		mediaURL string
		image    string
		want     string
	}{
		{"https://media.example.com/", "", domain.NoImage},
		{"https://media.example.com/", "/info/pension.png", "https://media.example.com/info/pension.png"},
		{"https://media.example.com", "info/pension.png", "https://media.example.com/info/pension.png"},
		{"https://media.example.com", "https://other.example.com/a.png", "https://other.example.com/a.png"},
		{"", "info/pension.png", "info/pension.png"},
	}
	for _, tc := range cases {
		view := app.NewSectionResolver(tc.mediaURL).Resolve(section(tc.image), 1)
		info := view.Payload.(domain.InformationView)
		if info.Image != tc.want {
			t.Fatalf("media %q image %q: got %q, want %q", tc.mediaURL, tc.image, info.Image, tc.want)
		}
	}
}
