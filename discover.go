package cambium

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/cambium/internal/codec"
)

// MasteredSuffix is appended to the stem of every output file.
const MasteredSuffix = "_mastered"

var errNotDirectory = errors.New("not a directory")

// DiscoverFiles lists supported audio files in root, sorted and without duplicates.
// Extension matching ignores case. Subdirectories are walked only when recursive is set.
func DiscoverFiles(root string, recursive bool) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%q: %w", root, errNotDirectory)
	}

	var files []string

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}

			return nil
		}

		if codec.Supported(path) {
			files = append(files, filepath.Clean(path))
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	slices.Sort(files)

	return slices.Compact(files), nil
}

// OutputPath returns <outputDir>/<stem>_mastered.wav for input.
func OutputPath(input, outputDir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	return filepath.Join(outputDir, stem+MasteredSuffix+".wav")
}

// PlanJobs pairs every input found under root with its output path. Subdirectories of root are
// mirrored under outputDir. Inputs that would land on the same output (song.wav and song.mp3)
// keep their extension in the name: song_mp3_mastered.wav.
func PlanJobs(root string, inputs []string, outputDir string) []Job {
	jobs := make([]Job, len(inputs))
	outputs := make([]string, len(inputs))
	seen := make(map[string]int, len(inputs))

	for i, input := range inputs {
		dir := outputDir
		if rel, err := filepath.Rel(root, filepath.Dir(input)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			dir = filepath.Join(outputDir, rel)
		}

		outputs[i] = OutputPath(input, dir)
		seen[outputs[i]]++
	}

	for i, input := range inputs {
		output := outputs[i]

		if seen[output] > 1 {
			base := filepath.Base(input)
			ext := filepath.Ext(base)
			stem := strings.TrimSuffix(base, ext)
			output = filepath.Join(filepath.Dir(output),
				stem+"_"+strings.TrimPrefix(ext, ".")+MasteredSuffix+".wav")
		}

		jobs[i] = Job{Input: input, Output: output}
	}

	return jobs
}
