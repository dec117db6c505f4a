package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
)

// Layout in PDF points, measured from the top of an A4 page.
const (
	pageHeight    = 842.0
	marginLeft    = 40.0
	vitalIndent   = 48.0
	titleY        = pageHeight - 800
	bodyStartY    = pageHeight - 780
	bottomMargin  = pageHeight - 60
	profileLeader = 16.0
	vitalLeader   = 14.0
)

// VitalsReport renders the profile summary followed by every vital in
// chronological order, paginating when the page is full.
func VitalsReport(r *model.PatientRecord) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(marginLeft, titleY, latin1(pdf, "Vitals Report for "+r.Patient.Username))

	pdf.SetFont("Helvetica", "", 10)
	y := bodyStartY
	line := func(x float64, s string, leading float64) {
		if y > bottomMargin {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 10)
			y = bodyStartY
		}
		pdf.Text(x, y, latin1(pdf, s))
		y += leading
	}

	if p := r.Profile; p != nil {
		line(marginLeft, "Full name: "+p.FullName, profileLeader)
		line(marginLeft, "Address: "+p.Address, profileLeader)
		line(marginLeft, "Allergies: "+p.Allergies, profileLeader)
	} else {
		line(marginLeft, "No profile information", profileLeader)
	}

	y += 4
	line(marginLeft, "Vitals:", profileLeader)
	if len(r.Vitals) == 0 {
		line(vitalIndent, "No vitals recorded", vitalLeader)
	}
	for _, v := range r.Vitals {
		line(vitalIndent, fmt.Sprintf("%s - %s - %s", v.Timestamp.UTC().Format("2006-01-02 15:04"), v.Type, v.Reading()), vitalLeader)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// latin1 maps UTF-8 text onto the core font encoding.
func latin1(pdf *fpdf.Fpdf, s string) string {
	return pdf.UnicodeTranslatorFromDescriptor("")(s)
}
