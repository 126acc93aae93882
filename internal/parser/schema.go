package parser

import (
	"strings"

	"docextract/internal/domain"
)

// Document type tags understood by the schema catalog.
const (
	DocPassport       = "PASSPORT"
	DocNationalID     = "NATIONAL_ID"
	DocDriversLicense = "DRIVERS_LICENSE"
	DocBankStatement  = "BANK_STATEMENT"
	DocInvoice        = "INVOICE"
	DocPayslip        = "PAYSLIP"
	DocUtilityBill    = "UTILITY_BILL"
	DocTaxReturn      = "TAX_RETURN"
)

func field(name string, kind domain.FieldKind) domain.SchemaField {
	return domain.SchemaField{Name: name, Kind: kind}
}

var schemaCatalog = map[string]domain.ExtractionSchema{
	DocPassport: {
		field("passportNumber", domain.FieldString),
		field("firstName", domain.FieldString),
		field("lastName", domain.FieldString),
		field("nationality", domain.FieldString),
		field("dateOfBirth", domain.FieldDate),
		field("placeOfBirth", domain.FieldString),
		field("sex", domain.FieldString),
		field("issueDate", domain.FieldDate),
		field("expiryDate", domain.FieldDate),
		field("issuingCountry", domain.FieldString),
		field("issuingAuthority", domain.FieldString),
	},
	DocNationalID: {
		field("idNumber", domain.FieldString),
		field("firstName", domain.FieldString),
		field("lastName", domain.FieldString),
		field("dateOfBirth", domain.FieldDate),
		field("sex", domain.FieldString),
		field("nationality", domain.FieldString),
		field("address", domain.FieldString),
		field("issueDate", domain.FieldDate),
		field("expiryDate", domain.FieldDate),
	},
	DocDriversLicense: {
		field("licenseNumber", domain.FieldString),
		field("firstName", domain.FieldString),
		field("lastName", domain.FieldString),
		field("dateOfBirth", domain.FieldDate),
		field("address", domain.FieldString),
		field("categories", domain.FieldArray),
		field("issueDate", domain.FieldDate),
		field("expiryDate", domain.FieldDate),
		field("issuingAuthority", domain.FieldString),
	},
	DocBankStatement: {
		field("bankName", domain.FieldString),
		field("accountHolder", domain.FieldString),
		field("accountNumber", domain.FieldString),
		field("iban", domain.FieldString),
		field("currency", domain.FieldString),
		field("periodStart", domain.FieldDate),
		field("periodEnd", domain.FieldDate),
		field("openingBalance", domain.FieldNumber),
		field("closingBalance", domain.FieldNumber),
		field("transactions", domain.FieldArray),
	},
	DocInvoice: {
		field("invoiceNumber", domain.FieldString),
		field("invoiceDate", domain.FieldDate),
		field("dueDate", domain.FieldDate),
		field("vendorName", domain.FieldString),
		field("vendorTaxId", domain.FieldString),
		field("customerName", domain.FieldString),
		field("currency", domain.FieldString),
		field("subtotal", domain.FieldNumber),
		field("taxAmount", domain.FieldNumber),
		field("totalAmount", domain.FieldNumber),
		field("lineItems", domain.FieldArray),
	},
	DocPayslip: {
		field("employerName", domain.FieldString),
		field("employeeName", domain.FieldString),
		field("employeeId", domain.FieldString),
		field("payPeriodStart", domain.FieldDate),
		field("payPeriodEnd", domain.FieldDate),
		field("payDate", domain.FieldDate),
		field("currency", domain.FieldString),
		field("grossPay", domain.FieldNumber),
		field("netPay", domain.FieldNumber),
		field("deductions", domain.FieldArray),
	},
	DocUtilityBill: {
		field("providerName", domain.FieldString),
		field("accountNumber", domain.FieldString),
		field("customerName", domain.FieldString),
		field("serviceAddress", domain.FieldString),
		field("billDate", domain.FieldDate),
		field("dueDate", domain.FieldDate),
		field("currency", domain.FieldString),
		field("amountDue", domain.FieldNumber),
	},
	DocTaxReturn: {
		field("taxpayerName", domain.FieldString),
		field("taxId", domain.FieldString),
		field("taxYear", domain.FieldNumber),
		field("filingStatus", domain.FieldString),
		field("totalIncome", domain.FieldNumber),
		field("taxableIncome", domain.FieldNumber),
		field("taxDue", domain.FieldNumber),
		field("refundAmount", domain.FieldNumber),
	},
}

// FieldsFor returns the fields expected for a document type. Unknown types
// yield an empty schema; extraction still proceeds unconstrained.
func FieldsFor(documentType string) domain.ExtractionSchema {
	s, ok := schemaCatalog[normalizeDocumentType(documentType)]
	if !ok {
		return domain.ExtractionSchema{}
	}
	out := make(domain.ExtractionSchema, len(s))
	copy(out, s)
	return out
}

// DocumentTypes lists the tags with a known schema, in no particular order.
func DocumentTypes() []string {
	types := make([]string, 0, len(schemaCatalog))
	for t := range schemaCatalog {
		types = append(types, t)
	}
	return types
}

func normalizeDocumentType(documentType string) string {
	return strings.ToUpper(strings.TrimSpace(documentType))
}
