package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/listenupapp/bookrec/internal/domain"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook and the argument order in bookArgs.
const bookColumns = `isbn13, isbn10, title, subtitle, authors, categories, thumbnail, description,
	published_year, average_rating, num_pages, ratings_count,
	title_and_subtitle, tagged_description, simple_categories,
	anger, disgust, fear, joy, sadness, surprise, neutral`

// maxLookupBatch keeps IN (...) lists under SQLite's bound-parameter limit.
const maxLookupBatch = 500

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (domain.Book, error) {
	var (
		b        domain.Book
		year     sql.NullInt64
		rating   sql.NullFloat64
		pages    sql.NullInt64
		ratings  sql.NullInt64
		emotions = make([]sql.NullFloat64, len(domain.EmotionLabels()))
	)

	dest := []any{
		&b.ISBN13, &b.ISBN10, &b.Title, &b.Subtitle, &b.Authors, &b.Categories, &b.Thumbnail, &b.Description,
		&year, &rating, &pages, &ratings,
		&b.TitleAndSubtitle, &b.TaggedDescription, &b.SimpleCategory,
	}
	for i := range emotions {
		dest = append(dest, &emotions[i])
	}
	if err := scanner.Scan(dest...); err != nil {
		return domain.Book{}, err
	}

	b.PublishedYear = nullInt(year)
	b.AverageRating = nullFloat(rating)
	b.NumPages = nullInt(pages)
	b.RatingsCount = nullInt(ratings)

	for i, label := range domain.EmotionLabels() {
		if !emotions[i].Valid {
			continue
		}
		if b.Emotions == nil {
			b.Emotions = make(domain.EmotionScores)
		}
		b.Emotions[label] = emotions[i].Float64
	}
	return b, nil
}

func bookArgs(b *domain.Book, updatedAt string) []any {
	args := []any{
		b.ISBN13, b.ISBN10, b.Title, b.Subtitle, b.Authors, b.Categories, b.Thumbnail, b.Description,
		intArg(b.PublishedYear), floatArg(b.AverageRating), intArg(b.NumPages), intArg(b.RatingsCount),
		b.TitleAndSubtitle, b.TaggedDescription, b.SimpleCategory,
	}
	for _, label := range domain.EmotionLabels() {
		if v, ok := b.Emotions.Get(label); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return append(args, updatedAt)
}

// ReplaceBooks makes books the entire catalog contents in a single transaction.
func (s *Store) ReplaceBooks(ctx context.Context, books []domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clear books: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domain.EmotionLabels())+16), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO books (%s, updated_at) VALUES (%s)`, bookColumns, placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	updatedAt := formatTime(s.now())
	for i := range books {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, bookArgs(&books[i], updatedAt)...); err != nil {
			return fmt.Errorf("insert book %d: %w", books[i].ISBN13, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("catalog replaced", "books", len(books))
	return nil
}

// GetBook returns a single book by isbn13.
func (s *Store) GetBook(ctx context.Context, isbn13 int64) (domain.Book, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn13 = ?`, isbn13)
	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return domain.Book{}, false, nil
	}
	if err != nil {
		return domain.Book{}, false, fmt.Errorf("get book %d: %w", isbn13, err)
	}
	return b, true, nil
}

// GetByISBNs returns the books whose isbn13 is in ids, in the order of ids.
// Unknown ids are omitted and repeated ids are returned once.
func (s *Store) GetByISBNs(ctx context.Context, ids []int64) ([]domain.Book, error) {
	found := make(map[int64]domain.Book, len(ids))
	for start := 0; start < len(ids); start += maxLookupBatch {
		end := min(start+maxLookupBatch, len(ids))
		batch, err := s.getBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, b := range batch {
			found[b.ISBN13] = b
		}
	}

	books := make([]domain.Book, 0, len(found))
	for _, id := range ids {
		b, ok := found[id]
		if !ok {
			continue
		}
		books = append(books, b)
		delete(found, id)
	}
	return books, nil
}

func (s *Store) getBatch(ctx context.Context, ids []int64) ([]domain.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT %s FROM books WHERE isbn13 IN (%s)`,
		bookColumns,
		strings.Join(placeholders, ","),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// Count returns the number of books in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// CategoryCounts returns the number of books per simple category, keyed by category.
func (s *Store) CategoryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT simple_categories, COUNT(*) FROM books GROUP BY simple_categories`)
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
