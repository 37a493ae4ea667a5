// Package render turns a pipeline.Deck into a presentation: a Google Slides
// copy of the service template, or a JSON file for offline runs.
package render

import (
	"google.golang.org/api/slides/v1"

	"github.com/lighthouse-maranatha/lyricdeck/pkg/lyricdeck/pipeline"
)

const (
	emuPerPoint = 12700.0

	boxHeight = 90.0

	englishFont     = "Arial Black"
	englishFontSize = 26.0
	koreanFont      = "Calibri"
	koreanFontSize  = 30.0
)

// Layout is the geometry of the target presentation, in points.
type Layout struct {
	PageWidth      float64
	PageHeight     float64
	InsertionIndex int64
}

// SlideIDs names the objects created for one lyric slide.
type SlideIDs struct {
	Slide   string
	English string
	Korean  string
}

// BuildSlideRequests returns the batchUpdate requests that add one slide
// per pair, in deck order starting at layout.InsertionIndex. newID must
// return a fresh object ID for each call.
func BuildSlideRequests(deck pipeline.Deck, layout Layout, newID func(prefix string) string) ([]*slides.Request, []SlideIDs) {
	reqs := make([]*slides.Request, 0, len(deck)*12)
	ids := make([]SlideIDs, 0, len(deck))

	for i, pair := range deck {
		id := SlideIDs{Slide: newID("slide"), English: newID("eng"), Korean: newID("kor")}
		ids = append(ids, id)

		reqs = append(reqs,
			&slides.Request{CreateSlide: &slides.CreateSlideRequest{
				ObjectId:             id.Slide,
				InsertionIndex:       layout.InsertionIndex + int64(i),
				SlideLayoutReference: &slides.LayoutReference{PredefinedLayout: "BLANK"},
				ForceSendFields:      []string{"InsertionIndex"},
			}},
			&slides.Request{UpdatePageProperties: &slides.UpdatePagePropertiesRequest{
				ObjectId: id.Slide,
				PageProperties: &slides.PageProperties{
					PageBackgroundFill: &slides.PageBackgroundFill{
						SolidFill: &slides.SolidFill{Color: &slides.OpaqueColor{RgbColor: rgb(0, 0, 0)}},
					},
				},
				Fields: "pageBackgroundFill",
			}},
		)
		reqs = append(reqs, textBox(id.Slide, id.English, pair.English, layout, layout.PageHeight-2*boxHeight, "BOTTOM",
			&slides.TextStyle{
				FontFamily:      englishFont,
				FontSize:        pt(englishFontSize),
				ForegroundColor: &slides.OptionalColor{OpaqueColor: &slides.OpaqueColor{RgbColor: rgb(1, 1, 0)}},
			}, "fontFamily,fontSize,foregroundColor")...)
		reqs = append(reqs, textBox(id.Slide, id.Korean, pair.Korean, layout, layout.PageHeight-boxHeight, "TOP",
			&slides.TextStyle{
				FontFamily:      koreanFont,
				FontSize:        pt(koreanFontSize),
				Bold:            true,
				ForegroundColor: &slides.OptionalColor{OpaqueColor: &slides.OpaqueColor{RgbColor: rgb(1, 1, 1)}},
			}, "fontFamily,fontSize,foregroundColor,bold")...)
	}
	return reqs, ids
}

func textBox(pageID, boxID, text string, layout Layout, top float64, align string, style *slides.TextStyle, styleFields string) []*slides.Request {
	return []*slides.Request{
		{CreateShape: &slides.CreateShapeRequest{
			ObjectId:  boxID,
			ShapeType: "TEXT_BOX",
			ElementProperties: &slides.PageElementProperties{
				PageObjectId: pageID,
				Size:         &slides.Size{Width: pt(layout.PageWidth), Height: pt(boxHeight)},
				Transform: &slides.AffineTransform{
					ScaleX:          1,
					ScaleY:          1,
					TranslateY:      top,
					Unit:            "PT",
					ForceSendFields: []string{"TranslateX"},
				},
			},
		}},
		{UpdateShapeProperties: &slides.UpdateShapePropertiesRequest{
			ObjectId:        boxID,
			ShapeProperties: &slides.ShapeProperties{ContentAlignment: align},
			Fields:          "contentAlignment",
		}},
		{InsertText: &slides.InsertTextRequest{ObjectId: boxID, Text: text}},
		{UpdateTextStyle: &slides.UpdateTextStyleRequest{
			ObjectId:  boxID,
			Style:     style,
			TextRange: &slides.Range{Type: "ALL"},
			Fields:    styleFields,
		}},
		{UpdateParagraphStyle: &slides.UpdateParagraphStyleRequest{
			ObjectId:  boxID,
			Style:     &slides.ParagraphStyle{Alignment: "CENTER"},
			TextRange: &slides.Range{Type: "ALL"},
			Fields:    "alignment",
		}},
	}
}

// leftovers lists elements on the new slides that BuildSlideRequests did
// not create, such as layout placeholders.
func leftovers(pres *slides.Presentation, ids []SlideIDs) []*slides.Request {
	ours := make(map[string]map[string]bool, len(ids))
	for _, id := range ids {
		ours[id.Slide] = map[string]bool{id.English: true, id.Korean: true}
	}

	var reqs []*slides.Request
	for _, page := range pres.Slides {
		keep, ok := ours[page.ObjectId]
		if !ok {
			continue
		}
		for _, el := range page.PageElements {
			if el.ObjectId != "" && !keep[el.ObjectId] {
				reqs = append(reqs, &slides.Request{DeleteObject: &slides.DeleteObjectRequest{ObjectId: el.ObjectId}})
			}
		}
	}
	return reqs
}

// points converts a Slides dimension to points. Sizes come back in EMU.
func points(d *slides.Dimension) float64 {
	if d == nil {
		return 0
	}
	if d.Unit == "PT" {
		return d.Magnitude
	}
	return d.Magnitude / emuPerPoint
}

func pt(v float64) *slides.Dimension {
	return &slides.Dimension{Magnitude: v, Unit: "PT"}
}

func rgb(r, g, b float64) *slides.RgbColor {
	return &slides.RgbColor{Red: r, Green: g, Blue: b, ForceSendFields: []string{"Red", "Green", "Blue"}}
}
