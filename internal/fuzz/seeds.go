package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"rbsec/internal/driver"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB - ограничение для тестового корпуса
)

// rubySeeds covers the call shapes Security/Open distinguishes plus the
// literal forms the lexer has special paths for.
var rubySeeds = []string{
	"",
	"open(something)\n",
	"open(\"foo.txt\")\n",
	"open(\"| ls\")\n",
	"open(\"#{foo}.txt\")\n",
	"open(\"foo#{bar}\")\n",
	"open(\"|#{cmd}\")\n",
	"Kernel.open(\"|\" + cmd)\n",
	"::Kernel&.open(path, \"w\") { |f| f.write(x) }\n",
	"open(\"prefix\" + foo)\n",
	"open(%q(a), 'r')\n",
	"File.open(path)\nURI.open(url)\n",
	"x = <<~EOS\n  #{open(a)}\nEOS\nopen(x)\n",
	"%w[a b c].each { |w| open w }\n",
	"def open(x) = super\n",
	"class Foo < Bar; def initialize(a, *b, **c, &d); end; end\n",
	"if a then b elsif c then d else e end unless f\n",
	"/re#{x}/mi =~ `ls #{dir}`\n",
	"a&.b&.c(:sym, key: 1, 'k' => 2)\n",
	"__END__\nopen(ignored)\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range rubySeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все Ruby-файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !driver.IsRubyFile(d.Name()) {
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

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
