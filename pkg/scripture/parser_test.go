package scripture

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no references",
			text: "요즘 설교 준비가 너무 어렵습니다",
			want: []string{},
		},
		{
			name: "chapter and verse with jang jeol notation",
			text: "마태복음 5장 3절로 설교한 적이 있나요?",
			want: []string{"마태복음 5:3"},
		},
		{
			name: "colon notation",
			text: "요한복음 3:16 말씀이 궁금합니다",
			want: []string{"요한복음 3:16"},
		},
		{
			name: "verse range",
			text: "고린도전서 13장 1-3절은 사랑장입니다",
			want: []string{"고린도전서 13:1-3"},
		},
		{
			name: "psalm chapter only",
			text: "시편 23편 묵상",
			want: []string{"시편 23"},
		},
		{
			name: "chapter only with jang notation",
			text: "로마서 8장 전체를 다뤄주세요",
			want: []string{"로마서 8"},
		},
		{
			name: "alias folds to canonical book",
			text: "마태 5장 3절과 계시록 21:4",
			want: []string{"마태복음 5:3", "요한계시록 21:4"},
		},
		{
			name: "multiple references keep document order",
			text: "창세기 1:1과 요한복음 1장 1절을 비교하면",
			want: []string{"창세기 1:1", "요한복음 1:1"},
		},
		{
			name: "duplicates collapse to first appearance",
			text: "마태복음 5:3, 그리고 다시 마태복음 5장 3절",
			want: []string{"마태복음 5:3"},
		},
		{
			name: "unknown book is dropped",
			text: "바울서신 3장 5절이라는 책은 없습니다",
			want: []string{},
		},
		{
			name: "bare numbers without a book are ignored",
			text: "새벽 5시 30분 기도회",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractNormalized(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractNormalized(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	canonical := []string{
		"마태복음 5:3",
		"고린도전서 13:1-3",
		"시편 23",
	}
	for _, ref := range canonical {
		got := ExtractNormalized(ref)
		if len(got) != 1 || got[0] != ref {
			t.Errorf("ExtractNormalized(%q) = %v, want [%q]", ref, got, ref)
		}
	}
}

func TestParseFields(t *testing.T) {
	refs := Parse("고린도전서 13장 4-7절")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	ref := refs[0]
	if ref.Book != "고린도전서" || ref.Chapter != 13 || ref.VerseStart != 4 || ref.VerseEnd != 7 {
		t.Errorf("unexpected reference fields: %+v", ref)
	}
	if ref.OriginalRaw != "고린도전서 13장 4-7절" {
		t.Errorf("OriginalRaw = %q", ref.OriginalRaw)
	}
}
