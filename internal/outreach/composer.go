package outreach

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valyala/fasttemplate"
	"gopkg.in/yaml.v3"
)

const (
	tagStart = "{{"
	tagEnd   = "}}"
)

// Placeholders recognised inside a message template.
const (
	PlaceholderCompany      = "company"
	PlaceholderSenderName   = "sender_name"
	PlaceholderSenderRole   = "sender_role"
	PlaceholderSenderPhone  = "sender_phone"
	PlaceholderSenderEmail  = "sender_email"
	PlaceholderOrganization = "organization"
	PlaceholderWebsite      = "website"
)

// Sender is the signing team member of an outreach message.
type Sender struct {
	DisplayName string
	Role        string
	Phone       string
	Email       string
}

// Template is the configurable wording of the outreach message.
type Template struct {
	Organization string `yaml:"organization"`
	Website      string `yaml:"website"`
	Subject      string `yaml:"subject"`
	Body         string `yaml:"body"`
}

const defaultBody = `Kepada Yth.
Tim Public Relations / Kemitraan
{{company}}
di Tempat

Dengan hormat,
Perkenalkan, kami dari Himpunan Mahasiswa Informatika Universitas Singaperbangsa Karawang ({{organization}}). Kami merupakan organisasi kemahasiswaan di bawah Program Studi Informatika yang aktif dalam pengembangan teknologi, inovasi digital, serta kegiatan kemahasiswaan yang bersifat edukatif dan sosial.

Dalam rangka menyukseskan kegiatan-kegiatan kami yang tertera di dalam proposal, kami bermaksud mengajukan permohonan kerja sama kepada {{company}} sebagai salah satu mitra sponsor dalam kegiatan-kegiatan kami.

Sebagai bentuk kerja sama, kami siap memberikan berbagai bentuk branding dan publikasi untuk perusahaan Bapak/Ibu, yang tercantum lengkap dalam proposal terlampir.

Besar harapan kami untuk dapat menjalin komunikasi lebih lanjut dan berkolaborasi bersama {{company}} dalam kegiatan ini. Kami siap menjelaskan lebih detail melalui pertemuan daring maupun luring sesuai dengan waktu yang Bapak/Ibu luangkan.

Atas perhatian dan waktunya, kami ucapkan terima kasih.

Hormat kami,
{{sender_name}}
{{sender_role}}
{{organization}}
{{sender_phone}}
{{sender_email}}
{{website}}`

// DefaultTemplate returns the built-in Indonesian proposal letter.
func DefaultTemplate() Template {
	return Template{
		Organization: "HIMTIKA UNSIKA",
		Website:      "https://himtika.cs.unsika.ac.id/",
		Subject:      "Permohonan Kerja Sama Sponsorship - {{organization}}",
		Body:         defaultBody,
	}
}

// LoadTemplate reads a YAML template file. Fields left empty keep the default wording.
func LoadTemplate(path string) (Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return Template{}, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()
	return ParseTemplate(f)
}

// ParseTemplate decodes a YAML template, filling unset fields from the default.
func ParseTemplate(r io.Reader) (Template, error) {
	var t Template
	if err := yaml.NewDecoder(r).Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Template{}, fmt.Errorf("decode template: %w", err)
	}

	def := DefaultTemplate()
	if strings.TrimSpace(t.Organization) == "" {
		t.Organization = def.Organization
	}
	if strings.TrimSpace(t.Website) == "" {
		t.Website = def.Website
	}
	if strings.TrimSpace(t.Subject) == "" {
		t.Subject = def.Subject
	}
	if strings.TrimSpace(t.Body) == "" {
		t.Body = def.Body
	}
	return t, nil
}

// Composer renders outreach messages from a parsed template.
type Composer struct {
	tmpl    Template
	subject *fasttemplate.Template
	body    *fasttemplate.Template
}

// NewComposer parses the template placeholders once for reuse.
func NewComposer(t Template) (*Composer, error) {
	subject, err := fasttemplate.NewTemplate(t.Subject, tagStart, tagEnd)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	body, err := fasttemplate.NewTemplate(t.Body, tagStart, tagEnd)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}
	return &Composer{tmpl: t, subject: subject, body: body}, nil
}

// Compose renders the message body for the company, signed by the sender.
// Substitution is literal; link encoding is left to the link builders.
func (c *Composer) Compose(companyName string, sender Sender) string {
	return c.render(c.body, companyName, sender)
}

// Subject renders the email subject line.
func (c *Composer) Subject(companyName string, sender Sender) string {
	return c.render(c.subject, companyName, sender)
}

func (c *Composer) render(t *fasttemplate.Template, companyName string, sender Sender) string {
	values := map[string]string{
		PlaceholderCompany:      companyName,
		PlaceholderSenderName:   sender.DisplayName,
		PlaceholderSenderRole:   sender.Role,
		PlaceholderSenderPhone:  sender.Phone,
		PlaceholderSenderEmail:  sender.Email,
		PlaceholderOrganization: c.tmpl.Organization,
		PlaceholderWebsite:      c.tmpl.Website,
	}
	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		if v, ok := values[tag]; ok {
			return w.Write([]byte(v))
		}
		// unknown placeholders are left as written
		return w.Write([]byte(tagStart + tag + tagEnd))
	})
}
