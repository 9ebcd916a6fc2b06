package payment

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ayat-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

var (
	ErrNoPaymentMethod = errors.New("event has no payment method")
	ErrNotALink        = errors.New("payment reference is not a link")
)

type Mode string

const (
	ModeLink    Mode = "link"
	ModeQRImage Mode = "qr_image"
)

// Reference is the call to action shown before the booking form. Amount
// is always the per-ticket price.
type Reference struct {
	Mode     Mode   `json:"mode"`
	Link     string `json:"link,omitempty"`
	QRPath   string `json:"qrPath,omitempty"`
	Payee    string `json:"payee,omitempty"`
	PayeeVPA string `json:"payeeVpa,omitempty"`
	Note     string `json:"note"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

type Presenter struct {
	Currency string
}

func NewPresenter(currency string) *Presenter {
	if currency == "" {
		currency = "INR"
	}
	return &Presenter{Currency: currency}
}

// Present picks the event's payment mode. A pre-generated QR image wins
// over synthesizing a link.
func (p *Presenter) Present(e models.EventDescriptor) (Reference, error) {
	ref := Reference{Note: e.Title, Amount: e.TicketPrice, Currency: p.Currency}

	switch {
	case e.QRCodePath != "":
		ref.Mode = ModeQRImage
		ref.QRPath = e.QRCodePath
		ref.Payee = e.MerchantName
	case e.UPIID != "" && e.MerchantName != "":
		ref.Mode = ModeLink
		ref.Payee = e.MerchantName
		ref.PayeeVPA = e.UPIID
		ref.Link = p.Link(e.UPIID, e.MerchantName, e.Title, e.TicketPrice)
	default:
		return Reference{}, fmt.Errorf("event %s: %w", e.ID, ErrNoPaymentMethod)
	}
	return ref, nil
}

// Link builds upi://pay?pa=..&pn=..&tn=..&am=..&cu=..
func (p *Presenter) Link(vpa, payee, note string, amount int) string {
	return fmt.Sprintf("upi://pay?pa=%s&pn=%s&tn=%s&am=%d&cu=%s",
		vpa, encodeComponent(payee), encodeComponent(note), amount, p.Currency)
}

// encodeComponent percent-encodes like a URI component, spaces as %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// QRCode renders a link reference as a PNG so it can be scanned from a
// second device.
func QRCode(ref Reference, size int) ([]byte, error) {
	if ref.Mode != ModeLink {
		return nil, ErrNotALink
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(ref.Link, qrcode.Medium, size)
}
