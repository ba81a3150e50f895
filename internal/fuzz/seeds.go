package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var builtinSeeds = []string{
	``,
	"functions: []\n",
	`
functions:
  - name: three
    body:
      - yield: 1
      - yield: 2
      - return: 3
`,
	`
functions:
  - name: shadow
    body:
      - let: x
        value: 1
      - yield: x
      - let: x
        value: {"+": [x, 1]}
      - yield: x
`,
	`
functions:
  - name: counter
    params: [n]
    body:
      - let: i
        mut: true
        value: 0
      - while: {"<": [i, n]}
        do:
          - yield: i
          - assign: i
            value: {"+": [i, 1]}
      - return: i
`,
	`
functions:
  - name: upto
    params: [n]
    body:
      - let: i
        mut: true
        value: 0
      - loop:
          - if: {"==": [i, n]}
            then:
              - break
            else:
              - yield: i
          - assign: i
            value: {"+": [i, 1]}
      - return: i
`,
	`
functions:
  - name: fetch
    kind: async
    params: [url]
    body:
      - let: resp
        value: {await: {call: str, args: [url]}}
      - match: resp
        arms:
          - pat: _
            do:
              - return: resp
      - return: -1
`,
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every *.yaml under ../../testdata when present.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(b []byte) []byte {
	if len(b) > maxSeedBytes {
		return b[:maxSeedBytes]
	}
	return b
}
