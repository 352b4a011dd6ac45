package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"cvgen-backend/cv/model"
)

const (
	contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

	packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:cs="Calibri"/><w:sz w:val="22"/><w:lang w:val="fr-FR"/></w:rPr></w:rPrDefault>
<w:pPrDefault><w:pPr><w:spacing w:after="80" w:line="264" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:after="120"/></w:pPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:keepNext/><w:spacing w:before="240" w:after="80"/><w:pBdr><w:bottom w:val="single" w:sz="4" w:space="1" w:color="D1D5DB"/></w:pBdr><w:outlineLvl w:val="0"/></w:pPr></w:style>
<w:style w:type="paragraph" w:styleId="ListBullet"><w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:pPr><w:ind w:left="360" w:hanging="220"/></w:pPr></w:style>
</w:styles>`

	documentOpen  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentClose = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="708" w:footer="708" w:gutter="0"/></w:sectPr></w:body></w:document>`

	bullet = "• "
)

// RenderCV renders a CV into a DOCX byte slice. Sections with no content are
// left out.
func RenderCV(cv model.CV) ([]byte, error) {
	document, err := renderDocumentXML(cv)
	if err != nil {
		return nil, err
	}

	parts := []struct {
		name    string
		content []byte
	}{
		{name: "[Content_Types].xml", content: []byte(contentTypesXML)},
		{name: "_rels/.rels", content: []byte(packageRelsXML)},
		{name: "word/_rels/document.xml.rels", content: []byte(documentRelsXML)},
		{name: "word/document.xml", content: document},
		{name: "word/styles.xml", content: []byte(stylesXML)},
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	for _, part := range parts {
		w, err := writer.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

func renderDocumentXML(cv model.CV) ([]byte, error) {
	b := &docBuilder{}
	b.raw(documentOpen)

	name := cv.FullName()
	if name == "" {
		name = "Curriculum vitae"
	}
	b.paragraph("Title", run{text: name, style: StyleMap["name"]})
	if contact := contactLine(cv.Identity); contact != "" {
		b.paragraph("", run{text: contact, style: StyleMap["contact"]})
	}

	if cv.Profile.Valid {
		b.heading("Profil")
		b.paragraph("", run{text: cv.Profile.Value, style: StyleMap["body"]})
	}

	if len(cv.Experiences) > 0 {
		b.heading("Expériences")
		for _, exp := range cv.Experiences {
			if title := joinNonEmpty(" - ", exp.Role.Value, exp.Organization.Value); title != "" {
				b.paragraph("", run{text: title, style: StyleMap["roleLine"]})
			}
			if dates := dateRange(exp.StartDate, exp.EndDate); dates != "" {
				b.paragraph("", run{text: dates, style: StyleMap["meta"]})
			}
			if exp.Description.Valid {
				b.paragraph("", run{text: exp.Description.Value, style: StyleMap["body"]})
			}
		}
	}

	if len(cv.Education) > 0 {
		b.heading("Formations")
		for _, edu := range cv.Education {
			line := joinNonEmpty(", ", edu.Degree.Value, edu.Institution.Value)
			runs := []run{{text: bullet + line, style: StyleMap["roleLine"]}}
			if edu.Year.Valid {
				if line == "" {
					runs = []run{{text: bullet, style: StyleMap["body"]}}
				} else {
					runs = append(runs, run{text: " ", style: StyleMap["body"]})
				}
				runs = append(runs, run{text: "(" + edu.Year.Value + ")", style: StyleMap["meta"]})
			}
			b.paragraph("ListBullet", runs...)
		}
	}

	if len(cv.Skills.Technical) > 0 || len(cv.Skills.Soft) > 0 {
		b.heading("Compétences")
		b.labelledList("Techniques", cv.Skills.Technical)
		b.labelledList("Savoir-être", cv.Skills.Soft)
	}

	if len(cv.Languages) > 0 {
		b.heading("Langues")
		b.paragraph("", run{text: strings.Join(cv.Languages, ", "), style: StyleMap["body"]})
	}

	if len(cv.Interests) > 0 {
		b.heading("Centres d'intérêt")
		b.paragraph("", run{text: strings.Join(cv.Interests, ", "), style: StyleMap["body"]})
	}

	b.raw(documentClose)
	if b.err != nil {
		return nil, b.err
	}
	return b.buf.Bytes(), nil
}

type run struct {
	text  string
	style RunStyle
}

type docBuilder struct {
	buf bytes.Buffer
	err error
}

func (b *docBuilder) raw(s string) {
	b.buf.WriteString(s)
}

func (b *docBuilder) heading(title string) {
	b.paragraph("Heading1", run{text: title, style: StyleMap["sectionHeading"]})
}

func (b *docBuilder) labelledList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.paragraph("ListBullet",
		run{text: bullet + label + " : ", style: StyleMap["subHeading"]},
		run{text: strings.Join(items, ", "), style: StyleMap["body"]},
	)
}

func (b *docBuilder) paragraph(styleID string, runs ...run) {
	if b.err != nil {
		return
	}
	b.buf.WriteString("<w:p>")
	if styleID != "" {
		b.buf.WriteString(`<w:pPr><w:pStyle w:val="` + styleID + `"/></w:pPr>`)
	}
	for _, r := range runs {
		b.buf.WriteString("<w:r>")
		b.buf.WriteString(runProperties(r.style))
		b.buf.WriteString(`<w:t xml:space="preserve">`)
		if err := xml.EscapeText(&b.buf, []byte(r.text)); err != nil {
			b.err = err
			return
		}
		b.buf.WriteString("</w:t></w:r>")
	}
	b.buf.WriteString("</w:p>")
}

func runProperties(style RunStyle) string {
	var props strings.Builder
	if style.Bold {
		props.WriteString("<w:b/>")
	}
	if style.Italic {
		props.WriteString("<w:i/>")
	}
	if style.Color != "" {
		props.WriteString(`<w:color w:val="` + style.Color + `"/>`)
	}
	if style.Size > 0 {
		props.WriteString(`<w:sz w:val="` + strconv.Itoa(style.Size) + `"/>`)
	}
	if props.Len() == 0 {
		return ""
	}
	return "<w:rPr>" + props.String() + "</w:rPr>"
}

func contactLine(id model.Identity) string {
	age := ""
	if id.Age.Valid {
		age = id.Age.Value
		if _, err := strconv.Atoi(age); err == nil {
			age += " ans"
		}
	}
	return joinNonEmpty(" | ", age, id.City.Value, id.Email.Value, id.Phone.Value)
}

func dateRange(start, end model.Text) string {
	switch {
	case start.Valid && end.Valid:
		return start.Value + " - " + end.Value
	case start.Valid:
		return "Depuis " + start.Value
	case end.Valid:
		return "Jusqu'en " + end.Value
	default:
		return ""
	}
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
