package recipe

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"
)

func TestSteps(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{
			name:     "orderedList",
			fragment: "<ol><li>Mix  flour</li><li> Add <b>salt</b></li></ol>",
			want:     []string{"Mix flour", "Add salt"},
		},
		{
			name:     "nestedMarkup",
			fragment: "<p>Intro</p><ul><li>Knead<br>well</li></ul>",
			want:     []string{"Knead well"},
		},
		{
			name:     "plainParagraphs",
			fragment: "<p>Heat oven</p><p></p><div>Bake 20 min</div>",
			want:     []string{"Heat oven", "Bake 20 min"},
		},
		{
			name:     "plainText",
			fragment: "Boil water\n\nAdd pasta",
			want:     []string{"Boil water", "Add pasta"},
		},
		{
			name:     "emptyFragment",
			fragment: "  ",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Steps(tt.fragment))
		})
	}
}

func TestIngredientTable(t *testing.T) {
	rows := IngredientTable([]Ingredient{
		{Name: "Flour", Unit: "kg", Quantity: 0.500},
		{Name: "Salt", Unit: "kg", Quantity: 0.010},
	})

	require.Len(t, rows, 3)
	require.Equal(t, []string{"Product", "Unit", "Qty"}, rows[0])
	require.Equal(t, []string{"Flour", "kg", "0.50"}, rows[1])
	require.Equal(t, []string{"Salt", "kg", "0.01"}, rows[2])
}

func TestNumberedSteps(t *testing.T) {
	require.Equal(t, []string{"1. a", "2. b"}, NumberedSteps([]string{"a", "b"}))
	require.Empty(t, NumberedSteps(nil))
}

func TestAttachmentDisposition(t *testing.T) {
	tests := []struct {
		name string
		dish string
		want string
	}{
		{
			name: "ascii",
			dish: "Pizza Margherita",
			want: "attachment; filename*=UTF-8''Pizza%20Margherita.pdf",
		},
		{
			name: "cyrillic",
			dish: "Борщ",
			want: "attachment; filename*=UTF-8''%D0%91%D0%BE%D1%80%D1%89.pdf",
		},
		{
			name: "emptyName",
			dish: "",
			want: "attachment; filename*=UTF-8''recipe.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AttachmentDisposition(tt.dish))
		})
	}
}

func writePNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		for y := 0; y < 10; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "dish.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	longStep := "<li>" + string(bytes.Repeat([]byte("stir "), 400)) + "</li>"

	tests := []struct {
		name      string
		sheet     Sheet
		wantTexts []string
	}{
		{
			name: "ingredientsAndSteps",
			sheet: Sheet{
				Name:      "Bread",
				StepsHTML: "<ol><li>Mix</li><li>Bake</li></ol>",
				Ingredients: []Ingredient{
					{Name: "Flour", Unit: "kg", Quantity: 0.5},
					{Name: "Salt", Unit: "kg", Quantity: 0.01},
				},
				URL: "http://example.test/dishes/1",
			},
			wantTexts: []string{shown("Bread"), shown("0.50"), shown("0.01"), shown("Preparation:"), shown("1. Mix"), shown("2. Bake")},
		},
		{
			name: "missingImageDegrades",
			sheet: Sheet{
				Name:      "Soup",
				ImagePath: filepath.Join(dir, "missing.png"),
			},
			wantTexts: []string{shown("[Image load error:")},
		},
		{
			name: "embeddedImage",
			sheet: Sheet{
				Name:      "Cake",
				ImagePath: writePNG(t, dir),
			},
			wantTexts: []string{shown("Cake"), "/Subtype /Image"},
		},
		{
			name: "longStepsBreakPages",
			sheet: Sheet{
				Name:      "Stew",
				StepsHTML: "<ol>" + longStep + longStep + longStep + "</ol>",
			},
			wantTexts: []string{"/Count 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := NewRenderer(WithCompression(false))
			require.NoError(t, r.Render(&buf, tt.sheet))

			out := buf.String()
			require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
			for _, want := range tt.wantTexts {
				require.Contains(t, out, want)
			}
		})
	}
}

// shown encodes text the way a Unicode font writes it into a content stream:
// UTF-16BE inside a parenthesised string.
func shown(text string) string {
	var b strings.Builder
	for _, u := range utf16.Encode([]rune(text)) {
		for _, c := range []byte{byte(u >> 8), byte(u)} {
			switch c {
			case '\\', '(', ')':
				b.WriteByte('\\')
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}

func TestRenderCyrillicWithBundledFonts(t *testing.T) {
	r := NewRenderer(WithCompression(false))

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Sheet{
		Name:        "Борщ",
		Ingredients: []Ingredient{{Name: "Свёкла", Unit: "кг", Quantity: 0.3}},
	}))

	out := buf.String()
	require.Contains(t, out, "/BaseFont /utf8dejavu")
	require.Contains(t, out, "/Encoding /Identity-H")
	require.Contains(t, out, "("+shown("Борщ")+")Tj")
	require.Contains(t, out, shown("Свёкла"))
	require.NotContains(t, out, "(Борщ)Tj")
	require.NotContains(t, out, "/BaseFont /Helvetica")
}

func TestRenderMissingFontDirUsesBundledFonts(t *testing.T) {
	r := NewRenderer(WithFontDir(t.TempDir()), WithCompression(false))

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Sheet{Name: "Tea"}))
	require.Contains(t, buf.String(), "/BaseFont /utf8dejavu")
}
