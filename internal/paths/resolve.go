package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// maxSearchDepth bounds the recursive search below the resolver root.
// Terminal installs nest indicators at most a few directories deep;
// anything further is almost certainly not what the user meant.
const maxSearchDepth = 6

// Artifact is the result of resolving a short name to concrete files.
// Computed per invocation and never cached: the filesystem may change
// between runs (recompiles, installs).
type Artifact struct {
	// CanonicalRelativeName is the root-relative name in terminal
	// convention (backslash-separated, no extension).
	CanonicalRelativeName string
	// SourcePath is the absolute .mq5 path, if present.
	SourcePath string
	// CompiledPath is the absolute .ex5 path, if present.
	CompiledPath string
}

// ResolutionError reports that a name could not be resolved under a root.
// It carries the search root so the user can diagnose a misconfigured data
// directory.
type ResolutionError struct {
	Query string
	Root  string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q under %s (check the terminal data directory)", e.Query, e.Root)
}

// Resolver fuzzy-resolves short indicator/expert names under a search root.
type Resolver struct {
	Root string
}

// Resolve maps a short name to a concrete artifact, or nil when nothing
// scores above zero. Resolution order:
//  1. exact relative path as given
//  2. direct .ex5/.mq5 probe under the root
//  3. bounded-depth case-insensitive exact-basename search, .ex5 preferred
//  4. scored best-effort match (normalized equality, acronym, substring)
func (r *Resolver) Resolve(query string) *Artifact {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	rel := strings.ReplaceAll(query, `\`, "/")

	// Exact relative path, with or without extension.
	if hasArtifactExt(rel) {
		if _, err := os.Stat(filepath.Join(r.Root, rel)); err == nil {
			return r.artifactFor(strings.TrimSuffix(rel, filepath.Ext(rel)))
		}
	}
	for _, ext := range []string{".ex5", ".mq5"} {
		if _, err := os.Stat(filepath.Join(r.Root, rel+ext)); err == nil {
			return r.artifactFor(rel)
		}
	}

	candidates := r.collect()
	if len(candidates) == 0 {
		return nil
	}

	baseQuery := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))

	// Exact basename match first, then the scored pass.
	if best := pickBest(candidates, func(c candidate) int {
		if strings.EqualFold(c.base, baseQuery) {
			return scoreExactBase
		}
		return 0
	}); best != nil {
		return r.artifactFor(best.rel)
	}

	queryNorm := normalize(baseQuery)
	if best := pickBest(candidates, func(c candidate) int {
		return fuzzyScore(queryNorm, c)
	}); best != nil {
		return r.artifactFor(best.rel)
	}
	return nil
}

// Score bands. A higher band always beats any score in a lower band.
const (
	scoreExactBase  = 4000
	scoreNormalized = 3000
	scoreAcronym    = 2000
	scoreSubstring  = 1000
)

type candidate struct {
	rel   string // root-relative, forward slashes, no extension
	base  string // basename without extension
	ext   string // ".ex5" or ".mq5"
	depth int
}

// collect walks the root up to maxSearchDepth gathering artifact files.
func (r *Resolver) collect() []candidate {
	var out []candidate
	root := r.Root
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep going
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/")
		if d.IsDir() {
			if depth >= maxSearchDepth {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ex5" && ext != ".mq5" {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		out = append(out, candidate{
			rel:   strings.TrimSuffix(relSlash, filepath.Ext(relSlash)),
			base:  strings.TrimSuffix(filepath.Base(relSlash), filepath.Ext(relSlash)),
			ext:   ext,
			depth: depth,
		})
		return nil
	})
	return out
}

// pickBest returns the highest-scoring candidate, breaking ties by
// extension preference (.ex5 over .mq5) then shallower directory depth.
// Returns nil when no candidate scores above zero.
func pickBest(candidates []candidate, score func(candidate) int) *candidate {
	var best *candidate
	bestScore := 0
	for i := range candidates {
		c := candidates[i]
		s := score(c)
		if s <= 0 {
			continue
		}
		if best == nil || s > bestScore ||
			(s == bestScore && betterTie(c, *best)) {
			best = &candidates[i]
			bestScore = s
		}
	}
	return best
}

func betterTie(a, b candidate) bool {
	if a.ext != b.ext {
		return a.ext == ".ex5"
	}
	return a.depth < b.depth
}

func fuzzyScore(queryNorm string, c candidate) int {
	norm := normalize(c.base)
	if norm == "" || queryNorm == "" {
		return 0
	}
	if norm == queryNorm {
		return scoreNormalized
	}
	// "mac" finds "Moving Average Cross".
	if len(queryNorm) > 1 && acronym(c.base) == queryNorm {
		return scoreAcronym
	}
	if strings.Contains(norm, queryNorm) || strings.Contains(queryNorm, norm) {
		// Rank containment matches by edit distance so the closest
		// basename wins within the band.
		d := levenshtein.ComputeDistance(norm, queryNorm)
		if d >= scoreSubstring {
			d = scoreSubstring - 1
		}
		return scoreSubstring - d
	}
	return 0
}

// normalize strips everything but letters and digits and lowercases.
func normalize(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// acronym takes the first letter of each whitespace/punctuation-delimited
// token: "Moving Average Cross" -> "mac".
func acronym(s string) string {
	var sb strings.Builder
	inToken := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !inToken {
				sb.WriteRune(unicode.ToLower(r))
				inToken = true
			}
		} else {
			inToken = false
		}
	}
	return sb.String()
}

func hasArtifactExt(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".ex5" || ext == ".mq5"
}

// artifactFor assembles the artifact for a root-relative name (forward
// slashes, no extension), probing both extensions on disk.
func (r *Resolver) artifactFor(rel string) *Artifact {
	a := &Artifact{
		CanonicalRelativeName: strings.ReplaceAll(rel, "/", `\`),
	}
	compiled := filepath.Join(r.Root, rel+".ex5")
	if _, err := os.Stat(compiled); err == nil {
		a.CompiledPath = compiled
	}
	source := filepath.Join(r.Root, rel+".mq5")
	if _, err := os.Stat(source); err == nil {
		a.SourcePath = source
	}
	if a.CompiledPath == "" && a.SourcePath == "" {
		return nil
	}
	return a
}
