package tui

import (
	"fmt"
)

func (m Model) View() string {
	var s string

	switch m.state {
	case StateInput:
		s += "📚 bookfts - interactive search\n\n"
		s += "Enter your query:\n"
		s += "> " + m.query + "█\n\n"
		s += "(Press Enter to search, Esc to quit)"

	case StateSearching:
		s += "Searching the library...\n"

	case StateBrowsing:
		s += fmt.Sprintf("Found %d results for '%s' (Press q to search again):\n\n", len(m.results), m.query)

		start := 0
		end := len(m.results)
		if end > m.height-5 {
			end = m.height - 5
		}

		for i := start; i < end; i++ {
			cursor := " "
			if m.cursor == i {
				cursor = ">"
			}

			res := m.results[i]
			title := res.Book.Title
			author := res.Book.Author

			if m.cursor == i {
				title = fmt.Sprintf("\033[1m%s\033[0m", title)
				s += fmt.Sprintf("%s %s\n   \033[36mby %s · score %.2f\033[0m\n", cursor, title, author, res.Score)
			} else {
				s += fmt.Sprintf("%s %s\n   by %s · score %.2f\n", cursor, title, author, res.Score)
			}
			for _, snippet := range res.Snippets {
				s += fmt.Sprintf("     %s\n", snippet)
			}
			s += "\n"
		}

		s += "\n(Use arrow keys to navigate, Enter for details, q to search again)"

	case StateDetail:
		if m.detail != nil {
			b := m.detail.Book
			s += fmt.Sprintf("%s\nby %s\n\n", b.Title, b.Author)
			s += fmt.Sprintf("words: %d · score: %.2f · authority: %.4f · clicks: %d\n",
				b.WordCount, m.detail.Score, m.detail.AuthorityScore, b.ClickCount)
			s += fmt.Sprintf("file: %s\n", b.FilePath)
		}
		s += "\n(Press Enter or q to go back)"

	case StateError:
		s += fmt.Sprintf("Error: %v\n\nPress q to try again.", m.err)
	}

	return s
}
