package scripture

import (
	"fmt"
	"regexp"
	"strings"
)

// Reference is a single scripture reference extracted from free text.
type Reference struct {
	Book        string // canonical book name, e.g. "마태복음"
	Chapter     int
	VerseStart  int // 0 when the reference is chapter-only
	VerseEnd    int // equals VerseStart for single-verse references
	OriginalRaw string
}

// Reference patterns, in masking order:
//
//	마태복음 5장 3절 / 고린도전서 13장 1-3절  - chapter+verse, 장/절 notation
//	요한복음 3:16 / 요한복음 3:16-18          - chapter:verse notation
//	시편 23편                                  - psalm, chapter-only
//	마태복음 5장                               - chapter-only, 장 notation
//	마태복음 5                                 - bare canonical chapter-only form
var (
	chapterVersePattern = regexp.MustCompile(`([가-힣]+)\s*(\d+)장\s*(\d+)(?:\s*-\s*(\d+))?절?`)
	colonPattern        = regexp.MustCompile(`([가-힣]+)\s*(\d+)\s*:\s*(\d+)(?:\s*-\s*(\d+))?`)
	psalmPattern        = regexp.MustCompile(`(시편)\s*(\d+)편`)
	chapterOnlyPattern  = regexp.MustCompile(`([가-힣]+)\s*(\d+)장`)
	bareChapterPattern  = regexp.MustCompile(`([가-힣]+)\s+(\d+)`)
)

// bookAliases folds common sermon-note spellings to one canonical book name.
// Canonical names map to themselves so already-normalized text survives a
// second pass unchanged.
var bookAliases = map[string]string{
	// 구약
	"창세기": "창세기", "출애굽기": "출애굽기", "레위기": "레위기",
	"민수기": "민수기", "신명기": "신명기", "여호수아": "여호수아",
	"사사기": "사사기", "룻기": "룻기",
	"사무엘상": "사무엘상", "사무엘하": "사무엘하",
	"열왕기상": "열왕기상", "열왕기하": "열왕기하",
	"역대상": "역대상", "역대하": "역대하",
	"에스라": "에스라", "느헤미야": "느헤미야", "에스더": "에스더",
	"욥기": "욥기", "시편": "시편", "잠언": "잠언",
	"전도서": "전도서", "아가": "아가",
	"이사야": "이사야", "예레미야": "예레미야", "예레미야애가": "예레미야애가",
	"에스겔": "에스겔", "다니엘": "다니엘", "호세아": "호세아",
	"요엘": "요엘", "아모스": "아모스", "오바댜": "오바댜",
	"요나": "요나", "미가": "미가", "나훔": "나훔",
	"하박국": "하박국", "스바냐": "스바냐", "학개": "학개",
	"스가랴": "스가랴", "말라기": "말라기",
	// 신약
	"마태복음": "마태복음", "마가복음": "마가복음",
	"누가복음": "누가복음", "요한복음": "요한복음",
	"사도행전": "사도행전", "로마서": "로마서",
	"고린도전서": "고린도전서", "고린도후서": "고린도후서",
	"갈라디아서": "갈라디아서", "에베소서": "에베소서",
	"빌립보서": "빌립보서", "골로새서": "골로새서",
	"데살로니가전서": "데살로니가전서", "데살로니가후서": "데살로니가후서",
	"디모데전서": "디모데전서", "디모데후서": "디모데후서",
	"디도서": "디도서", "빌레몬서": "빌레몬서",
	"히브리서": "히브리서", "야고보서": "야고보서",
	"베드로전서": "베드로전서", "베드로후서": "베드로후서",
	"요한일서": "요한일서", "요한이서": "요한이서", "요한삼서": "요한삼서",
	"유다서": "유다서", "요한계시록": "요한계시록",
	// 축약형
	"창세": "창세기", "출애굽": "출애굽기", "마태": "마태복음",
	"마가": "마가복음", "누가": "누가복음", "요한": "요한복음",
	"사도": "사도행전", "로마": "로마서", "고린도전": "고린도전서",
	"고린도후": "고린도후서", "갈라디아": "갈라디아서",
	"에베소": "에베소서", "빌립보": "빌립보서", "골로새": "골로새서",
	"히브리": "히브리서", "야고보": "야고보서", "계시록": "요한계시록",
	"애가": "예레미야애가",
}

// Parse extracts scripture references from free text. Fragments that do not
// resolve to a known book are dropped, never an error. References are
// deduplicated on their canonical form, first appearance wins.
func Parse(text string) []Reference {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	type hit struct {
		ref Reference
		pos int
	}
	var hits []hit
	masked := []rune(text)

	// collect runs one pattern over the not-yet-matched text, then blanks the
	// matched spans so a later, looser pattern cannot re-match them
	collect := func(re *regexp.Regexp, build func(m []string) (Reference, bool)) {
		current := string(masked)
		for _, idx := range re.FindAllStringSubmatchIndex(current, -1) {
			groups := make([]string, 0, len(idx)/2)
			for g := 0; g < len(idx); g += 2 {
				if idx[g] < 0 {
					groups = append(groups, "")
					continue
				}
				groups = append(groups, current[idx[g]:idx[g+1]])
			}
			ref, ok := build(groups)
			if !ok {
				continue
			}
			ref.OriginalRaw = groups[0]
			start := len([]rune(current[:idx[0]]))
			end := start + len([]rune(groups[0]))
			// rune offsets stay stable across passes, byte offsets do not
			hits = append(hits, hit{ref: ref, pos: start})
			for r := start; r < end; r++ {
				masked[r] = ' '
			}
		}
	}

	verseBuilder := func(m []string) (Reference, bool) {
		book, ok := canonicalBook(m[1])
		if !ok {
			return Reference{}, false
		}
		chapter := atoi(m[2])
		start := atoi(m[3])
		end := start
		if m[4] != "" {
			end = atoi(m[4])
		}
		if chapter <= 0 || start <= 0 || end < start {
			return Reference{}, false
		}
		return Reference{Book: book, Chapter: chapter, VerseStart: start, VerseEnd: end}, true
	}

	chapterBuilder := func(m []string) (Reference, bool) {
		book, ok := canonicalBook(m[1])
		if !ok {
			return Reference{}, false
		}
		chapter := atoi(m[2])
		if chapter <= 0 {
			return Reference{}, false
		}
		return Reference{Book: book, Chapter: chapter}, true
	}

	collect(chapterVersePattern, verseBuilder)
	collect(colonPattern, verseBuilder)
	collect(psalmPattern, chapterBuilder)
	collect(chapterOnlyPattern, chapterBuilder)
	collect(bareChapterPattern, chapterBuilder)

	// restore document order, then dedupe on canonical form
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	seen := make(map[string]struct{}, len(hits))
	refs := make([]Reference, 0, len(hits))
	for _, h := range hits {
		key := Normalize(h.ref)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, h.ref)
	}
	return refs
}

// Normalize renders a reference in the canonical "책 장:절[-절]" form, or
// "책 장" when the reference is chapter-only.
func Normalize(ref Reference) string {
	if ref.VerseStart == 0 {
		return fmt.Sprintf("%s %d", ref.Book, ref.Chapter)
	}
	if ref.VerseEnd > ref.VerseStart {
		return fmt.Sprintf("%s %d:%d-%d", ref.Book, ref.Chapter, ref.VerseStart, ref.VerseEnd)
	}
	return fmt.Sprintf("%s %d:%d", ref.Book, ref.Chapter, ref.VerseStart)
}

// ExtractNormalized is the one-shot form used by the answer composer: parse
// and render in a single pass, preserving first-appearance order.
func ExtractNormalized(text string) []string {
	refs := Parse(text)
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, Normalize(ref))
	}
	return out
}

func canonicalBook(name string) (string, bool) {
	book, ok := bookAliases[strings.TrimSpace(name)]
	return book, ok
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
