package notion

// Block payload types, limited to the block kinds this application writes
// (headings, paragraphs, dividers). The JSON shapes mirror the Notion API:
// a block names its type and carries exactly one matching payload field.

// RichText is one styled text run inside a block or property.
type RichText struct {
	Type string     `json:"type,omitempty"`
	Text *TextValue `json:"text,omitempty"`
}

// TextValue holds the literal content of a text run.
type TextValue struct {
	Content string `json:"content"`
}

// Block is a single content block under a page.
type Block struct {
	Object    string          `json:"object,omitempty"`
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"`
	Heading1  *HeadingBlock   `json:"heading_1,omitempty"`
	Heading2  *HeadingBlock   `json:"heading_2,omitempty"`
	Paragraph *ParagraphBlock `json:"paragraph,omitempty"`
	Divider   *DividerBlock   `json:"divider,omitempty"`
}

// HeadingBlock is the payload of heading_1/heading_2 blocks.
type HeadingBlock struct {
	RichText []RichText `json:"rich_text"`
}

// ParagraphBlock is the payload of paragraph blocks.
type ParagraphBlock struct {
	RichText []RichText `json:"rich_text"`
}

// DividerBlock is the (empty) payload of divider blocks.
type DividerBlock struct{}

// NewHeading1 builds a heading_1 block with a single text run.
func NewHeading1(text string) Block {
	return Block{Object: "block", Type: "heading_1", Heading1: &HeadingBlock{RichText: textRuns(text)}}
}

// NewHeading2 builds a heading_2 block with a single text run.
func NewHeading2(text string) Block {
	return Block{Object: "block", Type: "heading_2", Heading2: &HeadingBlock{RichText: textRuns(text)}}
}

// NewParagraph builds a paragraph block with a single text run.
func NewParagraph(text string) Block {
	return Block{Object: "block", Type: "paragraph", Paragraph: &ParagraphBlock{RichText: textRuns(text)}}
}

// NewDivider builds a divider block.
func NewDivider() Block {
	return Block{Object: "block", Type: "divider", Divider: &DividerBlock{}}
}

func textRuns(text string) []RichText {
	return []RichText{{Type: "text", Text: &TextValue{Content: text}}}
}

// Property is one typed page property value. Exactly one field is set,
// matching the property's type in the target database schema.
type Property struct {
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Number   *float64   `json:"number,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
}

// DateValue holds a date property's start timestamp (ISO 8601).
type DateValue struct {
	Start string `json:"start"`
}

// Properties maps property names to values for create/update calls and for
// rows returned by a database query.
type Properties map[string]Property

// TitleProperty builds a title property with a single text run.
func TitleProperty(text string) Property {
	return Property{Title: textRuns(text)}
}

// RichTextProperty builds a rich_text property with a single text run.
func RichTextProperty(text string) Property {
	return Property{RichText: textRuns(text)}
}

// NumberProperty builds a number property.
func NumberProperty(n float64) Property {
	return Property{Number: &n}
}

// DateProperty builds a date property from an ISO 8601 timestamp.
func DateProperty(start string) Property {
	return Property{Date: &DateValue{Start: start}}
}

// Page is a row of a database (or a page object) as returned by the API.
type Page struct {
	ID         string     `json:"id"`
	Properties Properties `json:"properties"`
}

// PlainText flattens a property's rich_text runs into one string. It returns
// an empty string for properties that carry no text, which callers treat as
// "no value" rather than an error.
func (p Property) PlainText() string {
	out := ""
	for _, rt := range p.RichText {
		if rt.Text != nil {
			out += rt.Text.Content
		}
	}
	return out
}
