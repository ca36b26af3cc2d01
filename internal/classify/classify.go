// Package classify holds the pure text-classification functions shared by all
// collectors: seniority level, technical category, remote detection, tag
// extraction, and best-effort location/salary extraction. Every function is
// deterministic, side-effect free, and returns a documented default instead of
// failing.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vagasjr/vagasjr/internal/model"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips diacritics so "Júnior" and "junior"
// compare equal.
func Normalize(text string) string {
	lower := strings.ToLower(text)
	out, _, err := transform.String(accentStripper, lower)
	if err != nil {
		return lower
	}
	return out
}

var wordBoundaryRe = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(techKeywords))
	for _, kw := range techKeywords {
		m[kw] = regexp.MustCompile(`(?i)` + wholeWordPattern(kw))
	}
	return m
}()

// wholeWordPattern anchors kw on both sides. \b only asserts next to a word
// character, so keywords that start or end with a symbol ("c#", ".net") get
// an explicit non-word-or-edge anchor on that side instead.
func wholeWordPattern(kw string) string {
	pat := regexp.QuoteMeta(kw)
	if isWordByte(kw[0]) {
		pat = `\b` + pat
	} else {
		pat = `(?:^|[^\w])` + pat
	}
	if isWordByte(kw[len(kw)-1]) {
		pat += `\b`
	} else {
		pat += `(?:[^\w]|$)`
	}
	return pat
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

var jrRe = regexp.MustCompile(`\bjr\b`)

// DetectLevel classifies seniority from free text. Internship keywords are
// checked before junior keywords. When no keyword matches, fallback is
// returned; sources whose feeds are junior-only pass model.LevelJunior,
// everyone else passes "" and discards the candidate.
func DetectLevel(text string, fallback model.Level) model.Level {
	t := Normalize(text)

	for _, kw := range internshipKeywords {
		if strings.Contains(t, kw) {
			return model.LevelInternship
		}
	}

	for _, kw := range juniorKeywords {
		if kw == "jr" {
			if jrRe.MatchString(t) {
				return model.LevelJunior
			}
			continue
		}
		if strings.Contains(t, kw) {
			return model.LevelJunior
		}
	}

	return fallback
}

// DetectCategory classifies the technical area with binary keyword matching.
// Fullstack keywords short-circuit; the default is FULLSTACK.
func DetectCategory(text string) model.Category {
	t := Normalize(text)

	if containsAny(t, fullstackKeywords) {
		return model.CategoryFullstack
	}
	if containsAny(t, frontendKeywords) {
		return model.CategoryFrontend
	}
	if containsAny(t, backendKeywords) {
		return model.CategoryBackend
	}
	if containsAny(t, mobileKeywords) {
		return model.CategoryMobile
	}
	return model.CategoryFullstack
}

// ScoreCategory is the weighted variant used where binary matching is too
// noisy (search pages mixing many techs in one description). Explicit area
// words score 2, individual technologies score 1. Mobile wins at score >= 2;
// frontend/backend need score >= 2 and a strict lead over the other. The
// second return is false when no area clears the threshold.
func ScoreCategory(text string) (model.Category, bool) {
	t := Normalize(text)

	if containsAny(t, fullstackKeywords) {
		return model.CategoryFullstack, true
	}

	frontend := score(t, map[string]int{
		"frontend": 2, "front-end": 2,
		"react": 1, "vue": 1, "angular": 1, "css": 1,
	})
	backend := score(t, map[string]int{
		"backend": 2, "back-end": 2,
		"node": 1, "python": 1, ".net": 1, "sql": 1,
	})
	// "java" counts for backend only when it is not part of "javascript".
	if strings.Contains(t, "java") && !strings.Contains(t, "javascript") {
		backend++
	}
	mobile := score(t, map[string]int{
		"mobile": 2, "android": 2, "ios": 2, "flutter": 2, "react native": 2,
		"kotlin": 1, "swift": 1,
	})

	switch {
	case mobile >= 2:
		return model.CategoryMobile, true
	case frontend > backend && frontend >= 2:
		return model.CategoryFrontend, true
	case backend > frontend && backend >= 2:
		return model.CategoryBackend, true
	}
	return "", false
}

func score(text string, weights map[string]int) int {
	total := 0
	for kw, w := range weights {
		if strings.Contains(text, kw) {
			total += w
		}
	}
	return total
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// DetectRemote reports whether any of the given text fragments mention a
// remote work arrangement.
func DetectRemote(texts ...string) bool {
	t := Normalize(strings.Join(texts, " "))
	return containsAny(t, remoteKeywords)
}

// NormalizeTag folds alias spellings into the canonical tag name.
func NormalizeTag(tag string) string {
	t := strings.TrimSpace(strings.ToLower(tag))
	if canonical, ok := tagAliases[t]; ok {
		return canonical
	}
	return t
}

// ExtractTags matches the tech vocabulary against text with whole-word
// boundaries, normalizes aliases, and deduplicates. Callers cap the result.
func ExtractTags(text string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, kw := range techKeywords {
		if !wordBoundaryRe[kw].MatchString(text) {
			continue
		}
		tag := NormalizeTag(kw)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// MergeTags deduplicates tag lists in order, skipping work-modality labels,
// and truncates to limit.
func MergeTags(limit int, lists ...[]string) []string {
	var merged []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, tag := range list {
			t := NormalizeTag(tag)
			if t == "" || seen[t] || modalityWords[Normalize(t)] {
				continue
			}
			seen[t] = true
			merged = append(merged, t)
			if limit > 0 && len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}

// IsTechJob gates broad-query sources to technology postings.
func IsTechJob(text string) bool {
	return containsAny(Normalize(text), techJobKeywords)
}

// IsDevJob is the narrower gate used by generic job boards.
func IsDevJob(text string) bool {
	return containsAny(Normalize(text), devJobKeywords)
}

var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:local|localizacao|location|cidade|city)[\s:]+([^,\n]+)`),
	regexp.MustCompile(`(?i)\b(sao paulo|rio de janeiro|belo horizonte|curitiba|porto alegre|brasilia|salvador|fortaleza|recife|campinas)\b`),
	regexp.MustCompile(`(?i)\b(sp|rj|mg|pr|rs|df|ba|ce|pe)\b`),
}

// ExtractLocation pulls a best-effort location out of free text. Returns ""
// when nothing matches.
func ExtractLocation(text string) string {
	t := Normalize(text)
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[0])
	}
	return ""
}

var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:salario|salary|remuneracao|faixa salarial)[\s:]+([^\n]+)`),
	regexp.MustCompile(`(?i)R\$\s*[\d.,]+(?:\s*(?:a|ate|-)\s*R?\$?\s*[\d.,]+)?`),
	regexp.MustCompile(`(?i)(?:CLT|PJ)[\s:]+R?\$?\s*[\d.,]+`),
}

// ExtractSalary pulls a best-effort salary string out of free text. Returns
// "" when nothing matches.
func ExtractSalary(text string) string {
	t := Normalize(text)
	for _, re := range salaryPatterns {
		if m := re.FindString(t); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}
