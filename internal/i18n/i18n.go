// Package i18n provides the es/en message catalog for flash and validation
// messages. Spanish is the default language of the shop.
package i18n

import "strings"

var messages = map[string]map[string]string{
	"es": {
		"required":                      "Requerido",
		"must_be_positive":              "Debe ser mayor a 0",
		"must_not_be_negative":          "No puede ser negativo",
		"out_of_range":                  "Fuera de rango",
		"must_be_after_production_date": "La fecha de caducidad debe ser posterior a la elaboración",
		"must_be_less_than_max":         "El stock mínimo debe ser menor que el stock máximo",
		"invalid_channel":               "Canal de venta no válido",
		"folio_taken":                   "Ya existe una venta con este folio",
		"rut_taken":                     "Ya existe un cliente con este RUT",
		"welcome":                       "¡Bienvenido/a!",
		"invalid_credentials":           "Credenciales incorrectas",
		"logged_out":                    "Sesión cerrada correctamente",
		"permission_denied":             "No tienes permisos para realizar esta acción",
		"product_created":               "Producto creado correctamente",
		"product_updated":               "Producto actualizado correctamente",
		"product_deleted":               "Producto eliminado correctamente",
		"product_in_use":                "No se puede eliminar: el producto tiene ventas asociadas",
		"customer_in_use":               "No se puede eliminar: el cliente tiene ventas asociadas",
		"sale_created":                  "Venta registrada correctamente",
		"sale_updated":                  "Venta actualizada correctamente",
		"sale_deleted":                  "Venta eliminada correctamente",
		"customer_created":              "Cliente creado correctamente",
		"customer_updated":              "Cliente actualizado correctamente",
		"customer_deleted":              "Cliente eliminado correctamente",
		"confirm_delete":                "La eliminación debe confirmarse desde los botones correspondientes",
		"check_form":                    "Revisa los campos, hay información no válida",
		"alert_attended":                "Alerta marcada como atendida",
		"invalid_date_filter":           "Fecha inválida, se omitió el filtro",
	},
	"en": {
		"required":                      "Required",
		"must_be_positive":              "Must be greater than 0",
		"must_not_be_negative":          "Must not be negative",
		"out_of_range":                  "Out of range",
		"must_be_after_production_date": "Expiry date must be after production date",
		"must_be_less_than_max":         "Minimum stock must be below maximum stock",
		"invalid_channel":               "Invalid sale channel",
		"folio_taken":                   "A sale with this folio already exists",
		"rut_taken":                     "A customer with this RUT already exists",
		"welcome":                       "Welcome!",
		"invalid_credentials":           "Invalid credentials",
		"logged_out":                    "Logged out",
		"permission_denied":             "You do not have permission to perform this action",
		"product_created":               "Product created",
		"product_updated":               "Product updated",
		"product_deleted":               "Product deleted",
		"product_in_use":                "Cannot delete: product is referenced by sales",
		"customer_in_use":               "Cannot delete: customer is referenced by sales",
		"sale_created":                  "Sale recorded",
		"sale_updated":                  "Sale updated",
		"sale_deleted":                  "Sale deleted",
		"customer_created":              "Customer created",
		"customer_updated":              "Customer updated",
		"customer_deleted":              "Customer deleted",
		"confirm_delete":                "Deletion must be confirmed explicitly",
		"check_form":                    "Please review the form, some values are invalid",
		"alert_attended":                "Alert marked as attended",
		"invalid_date_filter":           "Invalid date, filter was skipped",
	},
}

// T translates code for lang. Unknown languages fall back to Spanish;
// unknown codes fall back to the code itself.
func T(lang, code string) string {
	m, ok := messages[lang]
	if !ok {
		m = messages["es"]
	}
	if s, ok := m[code]; ok {
		return s
	}
	if s, ok := messages["es"][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks es or en from an Accept-Language header value.
func DetectLanguage(header string) string {
	h := strings.ToLower(header)
	for _, part := range strings.Split(h, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.HasPrefix(tag, "en") {
			return "en"
		}
		if strings.HasPrefix(tag, "es") {
			return "es"
		}
	}
	return "es"
}
