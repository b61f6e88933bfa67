// Package invoice reconciles the monetary fields extracted from an invoice.
//
// Extraction models read photographed documents and return partial, noisy and
// sometimes contradictory amounts. This package turns them into one
// consistent accounting triple: pre-tax amount (HT), tax amount (TVA) and
// tax-inclusive total (TTC).
//
// Two strategies share the same parsers and coherence check:
//   - Reconciler serves the interactive validation path. It derives what can
//     be derived, never rewrites an extracted amount, and labels the result
//     verified, to_verify or incomplete with a reason for the user.
//   - BestEffortResolver serves the export path. It always returns a full
//     triple, repairs incoherent amounts by recomputing the tax, and flags
//     the result as estimated.
//
// Coherence tolerances are explicit policies:
//   - InteractiveTolerance: max(0.02, 0.5% of the total)
//   - ExportTolerance: a flat 0.05
//
// Every function is pure and safe for concurrent use. Parse failures degrade
// to "absent" values and never return errors.
package invoice
