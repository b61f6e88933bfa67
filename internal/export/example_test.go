package export_test

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"factures/internal/export"
	"factures/pkg/models"
)

func ExampleGenerator_CSV() {
	g := export.NewGenerator(export.DefaultConfig()).
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) })

	records := []export.Record{
		g.ResolveForExport(models.Invoice{
			ID:           "7d1c",
			Vendor:       "Boulanger",
			InvoiceDate:  "12/04/2024",
			PreTaxAmount: models.Float(250),
			TaxAmount:    models.Float(50),
			TotalAmount:  models.Float(300),
		}),
		g.ResolveForExport(models.Invoice{
			ID:          "9a02",
			Vendor:      "Total Energies",
			Description: "Plein gazole",
			InvoiceDate: "2024-04-20",
			TotalAmount: models.Float(90),
		}),
	}

	out, err := g.CSV(records)
	if err != nil {
		panic(err)
	}
	fmt.Print(strings.TrimPrefix(out, "\ufeff"))
	// Output:
	// Date;Numéro de facture;Fournisseur;Libellé;Montant HT;TVA;Montant TTC;Taux TVA (%);Type;Mode de paiement;Période comptable;ID
	// 2024-04-12;;Boulanger;Achat - Boulanger;250.00;50.00;300.00;20.00;Achat;;2024-04;7d1c
	// 2024-04-20;;Total Energies;Plein gazole (À vérifier);75.00;15.00;90.00;20.00;Achat;;2024-04;9a02
}

func ExampleGate_Check() {
	gate := export.NewGate(nil)

	err := gate.Check([]models.Invoice{
		{ID: "a", InvoiceNumber: "F-1", PreTaxAmount: models.Float(100), TaxAmount: models.Float(20), TotalAmount: models.Float(120)},
		{ID: "b", InvoiceNumber: "F-2", PreTaxAmount: models.Float(100), TaxAmount: models.Float(20), TotalAmount: models.Float(121)},
	})

	var gateErr *export.GateError
	if errors.As(err, &gateErr) {
		for _, o := range gateErr.Offenders {
			fmt.Println(o.InvoiceNumber, o.Delta.StringFixed(2))
		}
	}
	fmt.Println(errors.Is(err, export.ErrIncoherentBatch))
	// Output:
	// F-2 1.00
	// true
}
