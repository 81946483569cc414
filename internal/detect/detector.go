// Package detect はマテリアライズ済みツリーから使用言語を推定する。
package detect

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-enry/go-enry/v2"
)

// maxSampleBytes は内容による言語判定に読み込む最大バイト数
const maxSampleBytes = 16 * 1024

// markerLanguages はマニフェストファイルが存在を示唆する言語
var markerLanguages = map[string]string{
	"requirements.txt": "Python",
	"pyproject.toml":   "Python",
	"setup.py":         "Python",
	"package.json":     "JavaScript",
	"tsconfig.json":    "TypeScript",
	"go.mod":           "Go",
	"Cargo.toml":       "Rust",
	"pom.xml":          "Java",
	"build.gradle":     "Java",
	"Gemfile":          "Ruby",
}

// Result は言語検出の結果を表す
type Result struct {
	// Languages はファイル数の多い順に並んだ言語名のリスト
	Languages []string
	// FileCounts は言語ごとのソースファイル数
	FileCounts map[string]int
}

// Detector はファイル拡張子・内容・マーカーファイルから言語を検出する
type Detector struct{}

// NewDetector は Detector を作成する
func NewDetector() *Detector {
	return &Detector{}
}

// Detect はツリーを走査して言語候補を返す。
// .git 配下とベンダーディレクトリはスキップする。
func (d *Detector) Detect(root string) (*Result, error) {
	counts := map[string]int{}
	markers := map[string]bool{}

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if entry.Name() == ".git" || enry.IsVendor(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if lang, ok := markerLanguages[entry.Name()]; ok {
			markers[lang] = true
		}

		if enry.IsVendor(rel) {
			return nil
		}

		language := d.detectFile(path, entry.Name())
		if language == "" {
			return nil
		}
		if t := enry.GetLanguageType(language); t != enry.Programming {
			return nil
		}

		counts[language]++
		return nil
	})
	if err != nil {
		return nil, err
	}

	// マーカーファイルのみで示唆された言語もファイル数0として候補に含める
	for lang := range markers {
		if _, ok := counts[lang]; !ok {
			counts[lang] = 0
		}
	}

	languages := make([]string, 0, len(counts))
	for lang := range counts {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		if counts[languages[i]] != counts[languages[j]] {
			return counts[languages[i]] > counts[languages[j]]
		}
		return languages[i] < languages[j]
	})

	return &Result{Languages: languages, FileCounts: counts}, nil
}

// Has は指定言語が検出されたかを返す
func (r *Result) Has(language string) bool {
	_, ok := r.FileCounts[language]
	return ok
}

// detectFile は1ファイルの言語を拡張子優先で判定する
func (d *Detector) detectFile(path, filename string) string {
	if lang, safe := enry.GetLanguageByExtension(filename); safe {
		return lang
	}

	content, err := readSample(path)
	if err != nil {
		return ""
	}

	return enry.GetLanguage(filename, content)
}

// readSample はファイル先頭の一部を読み込む
func readSample(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, maxSampleBytes)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:n], nil
}
