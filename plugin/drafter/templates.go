package drafter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Template file names recognised by keyword resolution.
const (
	LegalNoticeTemplate       = "LEGAL NOTICE To.docx"
	ConsumerComplaintTemplate = "Consumer_Complaint.docx"
	RTIApplicationTemplate    = "RTI_Application.docx"
)

// NamedDocument pairs a template file name with its content.
type NamedDocument struct {
	FileName string
	Doc      *Document
}

// DefaultTemplates returns the bundled legal notice, consumer complaint and
// RTI application templates.
func DefaultTemplates() []NamedDocument {
	return []NamedDocument{
		{FileName: LegalNoticeTemplate, Doc: legalNotice()},
		{FileName: ConsumerComplaintTemplate, Doc: consumerComplaint()},
		{FileName: RTIApplicationTemplate, Doc: rtiApplication()},
	}
}

// WriteDefaultTemplates writes the bundled templates into dir. Existing
// files are kept unless overwrite is set. It returns the paths written.
func WriteDefaultTemplates(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}

	var written []string
	for _, t := range DefaultTemplates() {
		target := filepath.Join(dir, t.FileName)
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		var buf bytes.Buffer
		if err := BuildDocx(&buf, t.Doc); err != nil {
			return written, fmt.Errorf("build %s: %w", t.FileName, err)
		}
		if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", t.FileName, err)
		}
		written = append(written, target)
	}
	return written, nil
}

func bold(text string) Run { return Run{Text: text, Bold: true} }

func legalNotice() *Document {
	return &Document{
		Font: "Times New Roman",
		Size: 12,
		Body: []Block{
			Paragraph{Align: "center", Runs: []Run{{Text: "ADVOCATE AI LEGAL SERVICES", Bold: true, Size: 16}}},
			Paragraph{Align: "center", Runs: []Run{{Text: "Office: Cloud Server, Internet | Email: advocate.ai@legalagent.com"}}},
			P(strings.Repeat("-", 90)),
			Paragraph{Runs: []Run{
				{Text: "Ref No: LEGAL/2025/{{REF_NO}}\t\t\t\t\t"},
				bold("Date: {{DATE}}"),
			}},
			Paragraph{Align: "center", Runs: []Run{{Text: "REGISTERED POST WITH A/D / SPEED POST", Bold: true, Underline: true}}},
			P("To,\n{{OPPONENT_NAME}}\n{{OPPONENT_ADDRESS}}"),
			Paragraph{Align: "center", Runs: []Run{bold("SUBJECT: LEGAL NOTICE FOR {{REASON}}")}},
			P("Sir/Madam,"),
			Paragraph{Runs: []Run{
				{Text: "Under instructions from and on behalf of my client, "},
				bold("{{CLIENT_NAME}}"),
				{Text: ", resident of {{CLIENT_ADDRESS}}, I hereby serve you with the following legal notice:"},
			}},
			P("1. That my client states: {{CASE_DETAILS}}"),
			P("2. That despite repeated requests and reminders, you have failed to fulfill your legal obligations towards my client."),
			P("3. That your acts and omissions have caused great mental agony, harassment and financial loss to my client."),
			Paragraph{Runs: []Run{
				bold("I THEREFORE CALL UPON YOU"),
				{Text: " to {{DEMAND}} within 15 days from the receipt of this notice, failing which my client shall be constrained to initiate appropriate civil/criminal proceedings against you at your own risk and cost."},
			}},
			P("You are also liable to pay Rs. 5,000/- as the cost of this legal notice."),
			P("A copy of this notice has been retained in my office for further record and action."),
			P("\nSincerely,\n"),
			Paragraph{Runs: []Run{bold("ADVOCATE AI")}},
		},
	}
}

func consumerComplaint() *Document {
	return &Document{
		Font: "Times New Roman",
		Size: 12,
		Body: []Block{
			Paragraph{Align: "center", Runs: []Run{{Text: "BEFORE THE DISTRICT CONSUMER DISPUTES REDRESSAL COMMISSION AT {{CITY}}", Bold: true, Size: 14}}},
			Paragraph{Align: "center", Runs: []Run{{Text: "\nConsumer Complaint No. _______ of 2025"}}},
			P("\nIN THE MATTER OF:"),
			Paragraph{Runs: []Run{bold("{{CLIENT_NAME}}\nR/o {{CLIENT_ADDRESS}}")}},
			Paragraph{Align: "right", Runs: []Run{{Text: "... COMPLAINANT"}}},
			Paragraph{Align: "center", Runs: []Run{{Text: "\nVERSUS\n"}}},
			Paragraph{Runs: []Run{bold("{{OPPONENT_NAME}}\nAddress: {{OPPONENT_ADDRESS}}")}},
			Paragraph{Align: "right", Runs: []Run{{Text: "... OPPOSITE PARTY"}}},
			Paragraph{Align: "center", Runs: []Run{bold("\nCOMPLAINT UNDER SECTION 35 OF THE CONSUMER PROTECTION ACT, 2019")}},
			P("MOST RESPECTFULLY SHOWETH:"),
			P("1. That the Complainant is a consumer as defined under the Consumer Protection Act, 2019."),
			P("2. That the facts of the case are: {{CASE_DETAILS}}"),
			P("3. That the goods/services supplied by the Opposite Party suffer from the following deficiency: {{DEFECT_DETAILS}}"),
			P("4. That the Complainant approached the Opposite Party several times, but the Opposite Party failed to redress the grievance."),
			P("5. JURISDICTION: That this Commission has the jurisdiction to entertain this complaint as the cause of action arose at {{CITY}}."),
			P("6. LIMITATION: That the complaint is filed within the period of limitation of two years from the date of the cause of action."),
			Paragraph{Runs: []Run{bold("\nPRAYER:")}},
			P("It is therefore most respectfully prayed that this Commission may direct the Opposite Party to:"),
			P("a) Refund the amount paid or replace the defective goods/services."),
			P("b) Pay Rs. {{COMPENSATION_AMOUNT}} as compensation for mental harassment."),
			P("c) Pay the cost of litigation."),
			Paragraph{Align: "right", Runs: []Run{bold("\nCOMPLAINANT")}},
			Paragraph{Align: "right", Runs: []Run{{Text: "Through Advocate AI"}}},
			Paragraph{Align: "center", Runs: []Run{bold("\nVERIFICATION")}},
			P("I, the above-named Complainant, do hereby verify that the contents of the above complaint are true and correct to the best of my knowledge and belief. Verified at {{CITY}} on {{DATE}}."),
			Paragraph{Align: "right", Runs: []Run{bold("\nDEPONENT")}},
		},
	}
}

func rtiApplication() *Document {
	return &Document{
		Font: "Arial",
		Size: 11,
		Body: []Block{
			Paragraph{Align: "center", Runs: []Run{bold("APPLICATION FOR INFORMATION UNDER RIGHT TO INFORMATION ACT, 2005")}},
			P("\nTo,\nThe Public Information Officer (PIO),\n{{DEPARTMENT_NAME}}\n{{DEPARTMENT_ADDRESS}}"),
			P("1. Name of Applicant: {{CLIENT_NAME}}"),
			P("2. Address: {{CLIENT_ADDRESS}}"),
			P("3. Particulars of information required:\n   (i) Subject: {{SUBJECT}}\n   (ii) Period: {{PERIOD}}\n   (iii) Details: {{CASE_DETAILS}}"),
			P("4. I state that the information sought does not fall within the restrictions contained in Section 8 of the Act and to the best of my knowledge it pertains to your office."),
			P("5. The prescribed application fee of Rs. 10 is enclosed."),
			P("\nPlace: {{CITY}}"),
			P("Date: {{DATE}}"),
			Paragraph{Align: "right", Runs: []Run{bold("\nSignature of Applicant")}},
		},
	}
}
