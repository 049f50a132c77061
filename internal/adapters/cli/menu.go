// Package cli provides the interactive terminal menu of the catalog.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jsamuelsen/library-catalog/internal/app"
	"github.com/jsamuelsen/library-catalog/internal/domain"
	"github.com/jsamuelsen/library-catalog/internal/platform/logging"
)

// Menu choices.
const (
	choiceViewAll = iota + 1
	choiceSortTitle
	choiceSortAuthor
	choiceSortYear
	choiceSearch
	choiceAdd
	choiceUpdate
	choiceDelete
	choiceExit
)

const (
	bannerTitle   = "Digital Library System"
	listHeader    = "===== LIBRARY CATALOG ====="
	resultsHeader = "===== SEARCH RESULTS ====="
	listFooter    = "=========================="
)

var menuOptions = []string{
	"View All Books",
	"Sort Books by Title",
	"Sort Books by Author",
	"Sort Books by Year",
	"Search for a Book",
	"Add a Book",
	"Update a Book",
	"Delete a Book",
	"Exit",
}

// Library is the set of use cases the menu drives.
type Library interface {
	ViewAll(ctx context.Context) ([]domain.Book, error)
	SortBy(ctx context.Context, field domain.SortField) ([]domain.Book, error)
	Search(ctx context.Context, keyword string) ([]domain.Book, error)
	AddBook(ctx context.Context, v domain.BookValues) (domain.Book, error)
	ResolveBook(ref string) (domain.Book, error)
	UpdateBook(ctx context.Context, id string, v domain.BookValues) error
	DeleteBook(ctx context.Context, id string) error
	Save(ctx context.Context) error
}

// Config configures a Menu.
type Config struct {
	In  io.Reader
	Out io.Writer

	// Color enables ANSI colors when Out is a terminal.
	Color bool

	// Logger is an optional logger. If nil, a default logger is used.
	Logger *slog.Logger
}

// Menu is the numbered-choice loop over a Library.
// Input is read on its own goroutine so a canceled context interrupts a
// pending prompt; every Library call happens on the goroutine running Run.
type Menu struct {
	lib    Library
	in     io.Reader
	lines  <-chan string
	out    io.Writer
	styles styles
	logger *slog.Logger
}

// NewMenu creates a menu reading cfg.In and writing cfg.Out.
func NewMenu(lib Library, cfg Config) *Menu {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Menu{
		lib:    lib,
		in:     cfg.In,
		out:    cfg.Out,
		styles: newStyles(cfg.Out, cfg.Color),
		logger: logger.With(slog.String("component", "cli.Menu")),
	}
}

// Run shows the menu until the user exits, input ends or ctx is canceled.
// Every way out saves the library first. Run returns nil even when saving
// fails; the failure is shown to the user and logged.
func (m *Menu) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	m.lines = readLines(m.in, done)

	for {
		m.printMenu()

		line, ok := m.prompt(ctx, "Enter your choice: ")
		if !ok {
			return m.exit(ctx)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < choiceViewAll || choice > choiceExit {
			m.failure("Invalid choice. Please try again.")
			continue
		}

		if choice == choiceExit {
			return m.exit(ctx)
		}

		if err := m.dispatch(ctx, choice); errors.Is(err, io.EOF) {
			return m.exit(ctx)
		}
	}
}

func (m *Menu) dispatch(ctx context.Context, choice int) error {
	actx := logging.WithAction(ctx, strings.ToLower(menuOptions[choice-1]))

	switch choice {
	case choiceViewAll:
		m.viewAll(actx)
	case choiceSortTitle:
		m.sortBy(actx, domain.FieldTitle)
	case choiceSortAuthor:
		m.sortBy(actx, domain.FieldAuthor)
	case choiceSortYear:
		m.sortBy(actx, domain.FieldYear)
	case choiceSearch:
		return m.search(actx)
	case choiceAdd:
		return m.add(actx)
	case choiceUpdate:
		return m.update(actx)
	case choiceDelete:
		return m.delete(actx)
	}

	return nil
}

func (m *Menu) printMenu() {
	m.println()
	m.println(m.styles.banner.Render(bannerTitle))
	m.println()
	for i, opt := range menuOptions {
		m.printf("%d. %s\n", i+1, opt)
	}
	m.println()
}

func (m *Menu) viewAll(ctx context.Context) {
	books, err := m.lib.ViewAll(ctx)
	m.showListing(listHeader, books, err)
}

func (m *Menu) sortBy(ctx context.Context, field domain.SortField) {
	books, err := m.lib.SortBy(ctx, field)
	m.showListing(listHeader, books, err)
}

func (m *Menu) search(ctx context.Context) error {
	keyword, ok := m.prompt(ctx, "Enter search keyword: ")
	if !ok {
		return io.EOF
	}

	books, err := m.lib.Search(ctx, keyword)
	switch {
	case domain.IsNotFound(err):
		m.failure("Book not found.")
	case err != nil:
		m.reportError(ctx, "search failed", err)
	case len(books) == 1:
		m.println(books[0].String())
	default:
		m.showListing(resultsHeader, books, nil)
	}

	return nil
}

func (m *Menu) add(ctx context.Context) error {
	title, ok := m.prompt(ctx, "Enter title: ")
	if !ok {
		return io.EOF
	}

	author, ok := m.prompt(ctx, "Enter author: ")
	if !ok {
		return io.EOF
	}

	year, ok := m.promptYear(ctx, "Enter publication year: ", nil)
	if !ok {
		return io.EOF
	}

	_, err := m.lib.AddBook(ctx, domain.BookValues{
		Title:           strings.TrimSpace(title),
		Author:          strings.TrimSpace(author),
		PublicationYear: year,
	})
	if err != nil {
		m.reportError(ctx, "add failed", err)
		return nil
	}

	m.success("Book added successfully!")

	return nil
}

func (m *Menu) update(ctx context.Context) error {
	book, ok, err := m.resolve(ctx, "Enter the book to update (#position, id, title or author): ")
	if !ok {
		return io.EOF
	}
	if err != nil {
		m.reportLookup(ctx, err)
		return nil
	}

	m.println(book.String())

	values := book.Values()

	title, ok := m.prompt(ctx, fmt.Sprintf("Enter new title [%s]: ", values.Title))
	if !ok {
		return io.EOF
	}
	if t := strings.TrimSpace(title); t != "" {
		values.Title = t
	}

	author, ok := m.prompt(ctx, fmt.Sprintf("Enter new author [%s]: ", values.Author))
	if !ok {
		return io.EOF
	}
	if a := strings.TrimSpace(author); a != "" {
		values.Author = a
	}

	current := values.PublicationYear
	year, ok := m.promptYear(ctx, fmt.Sprintf("Enter new publication year [%d]: ", current), &current)
	if !ok {
		return io.EOF
	}
	values.PublicationYear = year

	if err := m.lib.UpdateBook(ctx, book.ID(), values); err != nil {
		m.reportLookup(ctx, err)
		return nil
	}

	m.success("Book updated successfully!")

	return nil
}

func (m *Menu) delete(ctx context.Context) error {
	book, ok, err := m.resolve(ctx, "Enter the book to delete (#position, id, title or author): ")
	if !ok {
		return io.EOF
	}
	if err != nil {
		m.reportLookup(ctx, err)
		return nil
	}

	m.println(book.String())

	if err := m.lib.DeleteBook(ctx, book.ID()); err != nil {
		m.reportLookup(ctx, err)
		return nil
	}

	m.success("Book deleted successfully!")

	return nil
}

// Announce tells the user where the catalog was loaded from.
// books is the catalog size after loading.
func (m *Menu) Announce(result app.BootstrapResult, books int) {
	switch result.Source {
	case app.SourceSnapshot:
		m.success("Loaded saved library state")
	case app.SourceSeed:
		if result.Fallback != nil {
			m.failure("Saved library state could not be read; using initial book data")
		}
		m.success(fmt.Sprintf("Successfully loaded %d books.", books))
		m.success("Loaded initial book data")
	default:
		m.failure("No book data found; starting with an empty library")
	}
}

func (m *Menu) exit(ctx context.Context) error {
	if err := m.lib.Save(context.WithoutCancel(ctx)); err != nil {
		m.failure("Error saving library: " + err.Error())
	}

	m.success("Saving data... Goodbye!")

	return nil
}

// readLines feeds lines of r into the returned channel until r ends or done closes.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	return lines
}

// resolve prompts for a book reference. ok is false when input ended.
func (m *Menu) resolve(ctx context.Context, label string) (domain.Book, bool, error) {
	ref, ok := m.prompt(ctx, label)
	if !ok {
		return domain.Book{}, false, nil
	}

	b, err := m.lib.ResolveBook(ref)

	return b, true, err
}

// promptYear asks until it gets an integer. A blank answer returns keep
// when keep is non-nil.
func (m *Menu) promptYear(ctx context.Context, label string, keep *int) (int, bool) {
	for {
		line, ok := m.prompt(ctx, label)
		if !ok {
			return 0, false
		}

		line = strings.TrimSpace(line)
		if line == "" && keep != nil {
			return *keep, true
		}

		year, err := strconv.Atoi(line)
		if err == nil {
			return year, true
		}

		m.failure("Please enter a whole number.")
	}
}

// prompt prints label and waits for one line. ok is false at end of input
// or when ctx is canceled.
func (m *Menu) prompt(ctx context.Context, label string) (string, bool) {
	m.printf("%s", m.styles.prompt.Render(label))

	select {
	case line, ok := <-m.lines:
		if !ok {
			m.println()
		}
		return line, ok
	case <-ctx.Done():
		m.println()
		return "", false
	}
}

func (m *Menu) showListing(header string, books []domain.Book, err error) {
	if domain.IsEmpty(err) {
		m.println("No books in the library.")
		return
	}
	if err != nil {
		m.failure(err.Error())
		return
	}

	m.println()
	m.println(m.styles.heading.Render(header))
	for i, b := range books {
		m.printf("%d. %s\n", i+1, b)
	}
	m.println(m.styles.heading.Render(listFooter))
}

func (m *Menu) reportLookup(ctx context.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		m.failure("Book not found.")
	case domain.IsValidation(err):
		m.failure(err.Error())
	default:
		m.reportError(ctx, "book lookup failed", err)
	}
}

func (m *Menu) reportError(ctx context.Context, msg string, err error) {
	logger := m.logger
	if l, ok := logging.LoggerFromContext(ctx); ok {
		logger = l.With(slog.String("component", "cli.Menu"))
	}

	logger.ErrorContext(ctx, msg, slog.Any("error", err))
	m.failure("Something went wrong: " + err.Error())
}

func (m *Menu) success(msg string) {
	m.println(m.styles.success.Render(msg))
}

func (m *Menu) failure(msg string) {
	m.println(m.styles.failure.Render(msg))
}

func (m *Menu) println(a ...any) {
	_, _ = fmt.Fprintln(m.out, a...)
}

func (m *Menu) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(m.out, format, a...)
}
