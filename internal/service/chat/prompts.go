package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/notes-assistant-backend/internal/domain"
)

const languageRule = "Make sure that you respond to the user in the language of their message."

func generalPrompt(notes []domain.Note, sales []domain.SalesRecord) string {
	var b strings.Builder
	b.WriteString("You are an intelligent note-taking app. ")
	b.WriteString("The relevant notes for this query are:\n")
	b.WriteString(formatNotes(notes))
	b.WriteString("\n\nSome users also ask about revenue from products they sold. ")
	b.WriteString("The relevant sales records for this query are:\n")
	b.WriteString(formatSales(sales))
	b.WriteString("\n\n")
	b.WriteString(languageRule)
	return b.String()
}

const notesPrompt = "You are an intelligent note-taking app with access to the user's notes. " +
	"Use getNotes to look up notes, and getUserDatetime first when the user refers to a relative day " +
	"such as today or yesterday. " +
	"If the user wants to save a note, collect the title and content, then ask for approval with " +
	"askForConfirmation or promptForNoteData before calling makeNote. Never call makeNote without approval.\n" +
	languageRule

const createNotePrompt = "The user wants to create a note. " +
	"Prefer promptForNoteData to let the user review a title and content you propose, with labels and " +
	"button captions written in the user's language. Use askForConfirmation when the user already gave both. " +
	"Call makeNote only after the user approved, then tell the user the result. " +
	"If the user cancelled or denied, acknowledge it and do not create the note.\n" +
	languageRule

const salesPrompt = "You are a bookkeeping assistant with access to the user's sales records. " +
	"Use getSalesRecord to look up sales. Prices are in WON. " +
	"Call getUserDatetime first when the user refers to a relative period such as today, " +
	"and pass the returned range to getSalesRecord.\n" +
	languageRule

const unsupportedPrompt = "The user most likely wants to create a sales record. " +
	"Creating sales records through chat is not supported yet. " +
	"Tell the user so, and point them to the sales page of the app.\n" +
	languageRule

func formatNotes(notes []domain.Note) string {
	blocks := make([]string, len(notes))
	for i, n := range notes {
		content := ""
		if n.Content != nil {
			content = *n.Content
		}
		blocks[i] = fmt.Sprintf("Title: %s\n\nContent: %s", n.Title, content)
	}
	return strings.Join(blocks, "\n\n")
}

func formatSales(sales []domain.SalesRecord) string {
	blocks := make([]string, len(sales))
	for i, r := range sales {
		blocks[i] = fmt.Sprintf("Product Name: %s\n\nPrice: %s\n\nSold At: %s",
			r.ProductName, domain.FormatPrice(r.Price), r.SoldAt.UTC().Format(time.RFC3339))
	}
	return strings.Join(blocks, "\n\n")
}
