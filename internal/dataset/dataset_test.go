package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/bookrec/internal/domain"
	domainerrors "github.com/listenupapp/bookrec/internal/errors"
)

const rawCSV = `isbn13,isbn10,title,subtitle,authors,categories,thumbnail,description,published_year,average_rating,num_pages,ratings_count
9780002005883,0002005883,Gilead,,Marilynne Robinson,Fiction,http://x/1.jpg,"A NOVEL THAT READERS, and ""critics""",2004.0,3.85,247.0,361.0
9780002261982,0002261987,Spider's Web,A Novel,Charles Osborne;Agatha Christie,Detective and mystery stories,,,2000,3.83,241,5164
`

func TestRead_RawDataset(t *testing.T) {
	books, err := Read(strings.NewReader(rawCSV))
	require.NoError(t, err)
	require.Len(t, books, 2)

	g := books[0]
	assert.Equal(t, int64(9780002005883), g.ISBN13)
	assert.Equal(t, "0002005883", g.ISBN10)
	assert.Empty(t, g.Subtitle)
	assert.Equal(t, `A NOVEL THAT READERS, and "critics"`, g.Description)
	require.NotNil(t, g.PublishedYear)
	assert.Equal(t, 2004, *g.PublishedYear)
	require.NotNil(t, g.AverageRating)
	assert.InDelta(t, 3.85, *g.AverageRating, 1e-9)
	require.NotNil(t, g.NumPages)
	assert.Equal(t, 247, *g.NumPages)
	assert.Nil(t, g.Emotions)

	s := books[1]
	assert.Equal(t, "A Novel", s.Subtitle)
	assert.Empty(t, s.Description)
	assert.Empty(t, s.Thumbnail)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		msg  string
	}{
		{name: "empty", csv: "", msg: "dataset is empty"},
		{name: "no isbn column", csv: "title\nx\n", msg: "no isbn13 column"},
		{name: "bad isbn", csv: "isbn13,title\n1,x\nabc,y\n", msg: `line 3: isbn13 "abc" is not an integer`},
		{name: "bad year", csv: "isbn13,published_year\n1,1997.5\n", msg: "published_year"},
		{name: "bad rating", csv: "isbn13,average_rating\n1,great\n", msg: "average_rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRead_NullSpellings(t *testing.T) {
	books, err := Read(strings.NewReader("isbn13,description,num_pages,simple_categories\n1,nan,NaN,\n"))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Empty(t, books[0].Description)
	assert.Nil(t, books[0].NumPages)
	assert.False(t, books[0].HasCategory())
}

func TestRoundTrip_ProcessedDataset(t *testing.T) {
	year, pages, rating := 2004, 247, 3.85
	in := []domain.Book{{
		ISBN13:            9780002005883,
		Title:             "Gilead",
		Description:       "A novel.\nSecond line",
		PublishedYear:     &year,
		NumPages:          &pages,
		AverageRating:     &rating,
		TitleAndSubtitle:  "Gilead",
		TaggedDescription: "9780002005883 A novel.",
		SimpleCategory:    "Fiction",
		Emotions: domain.EmotionScores{
			domain.Anger: 0.064, domain.Disgust: 0.273, domain.Fear: 0.928, domain.Joy: 0.932,
			domain.Sadness: 0.646, domain.Surprise: 0.967, domain.Neutral: 0.549,
		},
		Extra:        map[string]string{"missing_description": "0"},
		ExtraColumns: []string{"missing_description"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.Equal(t, "isbn13,isbn10,title,subtitle,authors,categories,thumbnail,description,published_year,"+
		"average_rating,num_pages,ratings_count,title_and_subtitle,tagged_description,simple_categories,"+
		"anger,disgust,fear,joy,sadness,surprise,neutral,missing_description", header)

	out, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRead_MissingISBNReadsAsZero(t *testing.T) {
	books, err := Read(strings.NewReader("isbn13,title\n9780002005883,Gilead\n,Untitled\nnan,Other\n"))
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.True(t, books[0].HasISBN())
	assert.False(t, books[1].HasISBN())
	assert.False(t, books[2].HasISBN())
}

func TestRoundTrip_ExtraColumnsKeepSourceOrder(t *testing.T) {
	in := "isbn13,zeta,title,alpha,mid\n1,z,t,a,m\n"

	books, err := Read(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, books[0].ExtraColumns)

	books[0].Extra["added"] = "x"
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, books))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.True(t, strings.HasSuffix(header, ",zeta,alpha,mid,added"), header)
}

func TestWrite_OmitsEmptyDerivedColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []domain.Book{{ISBN13: 1, Title: "t"}}))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.NotContains(t, header, ColSimpleCategories)
	assert.NotContains(t, header, "joy")
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preprocessed", "books_cleaned.csv")

	require.NoError(t, WriteFile(path, []domain.Book{{ISBN13: 1, Title: "t"}}))

	books, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, books, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestTaggedDescriptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagged_descriptions.txt")
	books := []domain.Book{
		{ISBN13: 1, TaggedDescription: "1 first\nbook"},
		{ISBN13: 2, Description: "derived tag"},
	}

	require.NoError(t, WriteTaggedDescriptions(path, books))

	lines, err := ReadTaggedDescriptions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1 first book", "2 derived tag"}, lines)
}
