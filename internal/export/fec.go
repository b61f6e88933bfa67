package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Accounts of the French chart of accounts used by the purchase entries.
const (
	AccountSupplier      = "401000"
	AccountDeductibleVAT = "445660"
	AccountDefaultCharge = "606800"
	AccountRoundingLoss  = "658000"
	AccountRoundingGain  = "758000"
)

var fecHeader = []string{
	"JournalCode",
	"JournalLib",
	"EcritureNum",
	"EcritureDate",
	"CompteNum",
	"CompteLib",
	"CompAuxNum",
	"CompAuxLib",
	"PieceRef",
	"PieceDate",
	"EcritureLib",
	"Debit",
	"Credit",
	"EcritureLet",
	"DateLet",
	"ValidDate",
	"Montantdevise",
	"Idevise",
}

// Account is a ledger account number with its label.
type Account struct {
	Number string
	Label  string
}

// chargeAccounts maps category keywords to expense accounts. The first
// matching keyword wins.
var chargeAccounts = []struct {
	keywords []string
	account  Account
}{
	{[]string{"carburant", "essence", "fuel"}, Account{"606140", "Carburants"}},
	{[]string{"électricité", "electricite", "energie", "énergie", "gaz"}, Account{"606100", "Fournitures non stockables"}},
	{[]string{"bureau", "fourniture", "office", "supplies"}, Account{"606400", "Fournitures administratives"}},
	{[]string{"loyer", "location", "rent"}, Account{"613200", "Locations immobilières"}},
	{[]string{"entretien", "réparation", "reparation", "maintenance"}, Account{"615000", "Entretien et réparations"}},
	{[]string{"assurance", "insurance"}, Account{"616000", "Primes d'assurances"}},
	{[]string{"honoraire", "comptab", "juridique", "avocat", "conseil"}, Account{"622600", "Honoraires"}},
	{[]string{"publicité", "publicite", "marketing", "advertising"}, Account{"623000", "Publicité"}},
	{[]string{"transport", "déplacement", "deplacement", "voyage", "travel", "train", "avion", "taxi"}, Account{"625100", "Voyages et déplacements"}},
	{[]string{"restaurant", "repas", "réception", "reception", "meal"}, Account{"625700", "Réceptions"}},
	{[]string{"téléphone", "telephone", "internet", "télécom", "telecom", "poste", "postal"}, Account{"626000", "Frais postaux et de télécommunications"}},
	{[]string{"banque", "bancaire", "bank"}, Account{"627000", "Services bancaires"}},
	{[]string{"logiciel", "software", "abonnement", "saas", "licence"}, Account{"651000", "Redevances pour logiciels"}},
}

// ChargeAccount returns the expense account of an invoice category.
func ChargeAccount(category string) Account {
	c := strings.ToLower(strings.TrimSpace(category))
	if c != "" {
		for _, entry := range chargeAccounts {
			for _, keyword := range entry.keywords {
				if strings.Contains(c, keyword) {
					return entry.account
				}
			}
		}
	}
	return Account{AccountDefaultCharge, "Autres fournitures"}
}

// WriteFEC writes a pipe-delimited ledger in the FEC column layout. Each
// record is one balanced entry: the charge and the deductible VAT are debited
// and the supplier is credited.
func (g *Generator) WriteFEC(w io.Writer, records []Record) error {
	const op = "WriteFEC"

	var buf bytes.Buffer
	if err := writeFECLine(&buf, fecHeader); err != nil {
		return fmt.Errorf("%s: failed to write header: %w", op, err)
	}

	lines := 0
	for i, r := range records {
		for _, line := range g.fecEntry(i+1, r) {
			if err := writeFECLine(&buf, line); err != nil {
				return fmt.Errorf("%s: failed to write record %s: %w", op, r.ID, err)
			}
			lines++
		}
	}

	data := buf.Bytes()
	switch g.config.FECEncoding {
	case EncodingUTF8:
	case EncodingLatin9:
		encoded, err := encoding.ReplaceUnsupported(charmap.ISO8859_15.NewEncoder()).Bytes(data)
		if err != nil {
			return fmt.Errorf("%s: failed to encode: %w", op, err)
		}
		data = encoded
	default:
		return fmt.Errorf("%s: %w: %s", op, ErrUnknownEncoding, g.config.FECEncoding)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	g.log.Debug().
		Int("entries", len(records)).
		Int("lines", lines).
		Str("encoding", g.config.FECEncoding).
		Msg("FEC export written")
	return nil
}

// FEC returns the ledger as bytes in the configured encoding.
func (g *Generator) FEC(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.WriteFEC(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) fecEntry(num int, r Record) [][]string {
	date := strings.ReplaceAll(r.Date, "-", "")
	pieceRef := r.InvoiceNumber
	if pieceRef == "" {
		pieceRef = r.ID
	}
	label := fecText(r.Label)
	charge := ChargeAccount(r.Category)

	line := func(account Account, auxNum, auxLib string, debit decimal.Decimal) []string {
		debitCol, creditCol := "0.00", "0.00"
		if debit.IsNegative() {
			creditCol = debit.Neg().StringFixed(2)
		} else {
			debitCol = debit.StringFixed(2)
		}
		return []string{
			fecText(g.config.FECJournalCode),
			fecText(g.config.FECJournalLabel),
			fmt.Sprintf("%d", num),
			date,
			account.Number,
			fecText(account.Label),
			auxNum,
			fecText(auxLib),
			fecText(pieceRef),
			date,
			label,
			debitCol,
			creditCol,
			"",
			"",
			date,
			"",
			"",
		}
	}

	preTax := decimal.NewFromFloat(r.PreTax).Round(2)
	tax := decimal.NewFromFloat(r.Tax).Round(2)

	entry := [][]string{line(charge, "", "", preTax)}
	if !tax.IsZero() {
		entry = append(entry, line(Account{AccountDeductibleVAT, "TVA déductible sur autres biens et services"}, "", "", tax))
	}
	// The supplier is credited with the invoice total. A gap the coherence
	// tolerance let through goes to a rounding account so the entry balances.
	total := decimal.NewFromFloat(r.Total).Round(2)
	switch gap := total.Sub(preTax).Sub(tax); {
	case gap.IsPositive():
		entry = append(entry, line(Account{AccountRoundingLoss, "Charges diverses de gestion courante"}, "", "", gap))
	case gap.IsNegative():
		entry = append(entry, line(Account{AccountRoundingGain, "Produits divers de gestion courante"}, "", "", gap))
	}
	entry = append(entry, line(Account{AccountSupplier, "Fournisseurs"}, supplierAux(r.Vendor), r.Vendor, total.Neg()))

	return entry
}

func writeFECLine(w io.Writer, fields []string) error {
	_, err := io.WriteString(w, strings.Join(fields, "|")+"\r\n")
	return err
}

// fecText strips the delimiter and line breaks from free text.
func fecText(s string) string {
	s = strings.NewReplacer("|", " ", "\r", " ", "\n", " ", "\t", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// supplierAux derives an auxiliary account number from the vendor name.
func supplierAux(vendor string) string {
	var b strings.Builder
	b.WriteString("F")
	for _, r := range strings.ToUpper(vendor) {
		if b.Len() >= 12 {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
