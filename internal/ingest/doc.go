// Package ingest loads sales-activity data from spreadsheet or
// delimited files that are frequently half-broken: wrong sheet names,
// title rows stacked above the header, serial numbers where dates
// should be, and workbooks damaged enough that spreadsheet libraries
// refuse them outright.
//
// # Fallback Layers
//
// Workbook input is read through four layers, each attempted only when
// the previous one fails:
//
//  1. Structured read through the spreadsheet library
//  2. Low-level container read of the ZIP package (shared strings,
//     workbook manifest, worksheet part selection)
//  3. Structured XML parse of the selected worksheet part
//  4. Pattern-based salvage parse of the raw markup
//
// Every layer failure is logged and collected; only exhaustion of all
// layers is reported to the caller, as an error carrying each layer's
// cause. Delimited (.csv) input takes a cp932 single-layer path.
//
// # Post-Extraction Passes
//
// Whatever layer produced the rows, the same cleanup runs afterwards:
// header recovery over the leading rows, date-serial conversion in the
// fixed date column, and per-cell sanitization for the downstream
// cp932 encoding.
//
// # Usage
//
//	svc := ingest.NewService(vocab.HeaderKeywords, logger)
//	table, sheet, err := svc.LoadActivityTable(ctx, "activity.xlsx", "明細データ")
package ingest
