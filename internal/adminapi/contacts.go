package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/dialogix/dialogix/internal/domain"
	"github.com/dialogix/dialogix/internal/webserver"
	"github.com/dialogix/dialogix/pkg/common"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerContactsRoutes() {
	webserver.ApiGET("/contacts", listContacts)
	webserver.ApiGET("/contacts/:id", getContact)
	webserver.ApiPOST("/contacts", createContact)
	webserver.ApiPUT("/contacts/:id", updateContact)
	webserver.ApiDELETE("/contacts/:id", deleteContact)
	webserver.ApiPOST("/contacts/import", importContacts)
	webserver.ApiGET("/contacts/export", exportContacts)
}

func listContacts(c echo.Context) error {
	page, pageSize := parsePagination(c)
	base := tenantScope(c, GetDB(c).Model(&domain.CrmContact{}))

	if keyword := strings.TrimSpace(c.QueryParam("keyword")); keyword != "" {
		like := "%" + keyword + "%"
		base = base.Where("name like ? or email like ? or phone like ? or company like ?", like, like, like, like)
	}
	if status := c.QueryParam("status"); status != "" {
		base = base.Where("status = ?", status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query contacts", err.Error())
	}
	var contacts []domain.CrmContact
	if err := base.Order("id DESC").Offset((page-1)*pageSize).Limit(pageSize).Find(&contacts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query contacts", err.Error())
	}
	return paged(c, contacts, total, page, pageSize)
}

func getContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid contact ID", nil)
	}
	var contact domain.CrmContact
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&contact).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query contact", err.Error())
	}
	return ok(c, contact)
}

type contactPayload struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AvatarUrl string `json:"avatar_url"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Notes     string `json:"notes"`
	Status    string `json:"status"`
}

func createContact(c echo.Context) error {
	var payload contactPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse contact parameters", nil)
	}
	if strings.TrimSpace(payload.Name) == "" {
		return fail(c, http.StatusBadRequest, "MISSING_NAME", "Contact name is required", nil)
	}

	if payload.Phone != "" {
		var dup domain.CrmContact
		if err := tenantScope(c, GetDB(c)).Where("phone = ?", payload.Phone).First(&dup).Error; err == nil {
			return fail(c, http.StatusConflict, "DUPLICATE_CONTACT", "Contact with this phone already exists", nil)
		}
	}

	status := payload.Status
	if status == "" {
		status = "active"
	}
	contact := domain.CrmContact{
		ID:        common.UUIDint64(),
		TenantId:  GetTenantID(c),
		Name:      strings.TrimSpace(payload.Name),
		Email:     payload.Email,
		Phone:     payload.Phone,
		AvatarUrl: payload.AvatarUrl,
		Company:   payload.Company,
		Position:  payload.Position,
		Notes:     payload.Notes,
		Status:    status,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&contact).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create contact", err.Error())
	}
	audit(c, "create_contact", contact.Name)
	return ok(c, contact)
}

func updateContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid contact ID", nil)
	}
	var payload contactPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse contact parameters", nil)
	}
	var contact domain.CrmContact
	if err := tenantScope(c, GetDB(c)).Where("id = ?", id).First(&contact).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query contact", err.Error())
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if payload.Name != "" {
		updates["name"] = strings.TrimSpace(payload.Name)
	}
	if payload.Email != "" {
		updates["email"] = payload.Email
	}
	if payload.Phone != "" {
		updates["phone"] = payload.Phone
	}
	if payload.AvatarUrl != "" {
		updates["avatar_url"] = payload.AvatarUrl
	}
	if payload.Company != "" {
		updates["company"] = payload.Company
	}
	if payload.Position != "" {
		updates["position"] = payload.Position
	}
	if payload.Notes != "" {
		updates["notes"] = payload.Notes
	}
	if payload.Status != "" {
		updates["status"] = payload.Status
	}

	if err := GetDB(c).Model(&domain.CrmContact{}).Where("id = ?", contact.ID).Updates(updates).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update contact", err.Error())
	}
	audit(c, "update_contact", contact.Name)
	return ok(c, map[string]interface{}{"updated": true})
}

func deleteContact(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid contact ID", nil)
	}
	res := tenantScope(c, GetDB(c)).Where("id = ?", id).Delete(&domain.CrmContact{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete contact", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "CONTACT_NOT_FOUND", "Contact not found", nil)
	}
	audit(c, "delete_contact", c.Param("id"))
	return ok(c, map[string]interface{}{"deleted": true})
}

// importContacts loads contacts from an uploaded CSV file. Rows without a
// name are skipped, rows whose phone already exists are skipped too.
func importContacts(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "MISSING_FILE", "CSV file is required", nil)
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_FILE", "Unable to open uploaded file", err.Error())
	}
	defer src.Close()

	var rows []domain.CrmContact
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_CSV", "Unable to parse CSV content", err.Error())
	}

	tenantID := GetTenantID(c)
	imported, skipped := 0, 0
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			skipped++
			continue
		}
		if row.Phone != "" {
			var count int64
			GetDB(c).Model(&domain.CrmContact{}).
				Where("tenant_id = ? and phone = ?", tenantID, row.Phone).
				Count(&count)
			if count > 0 {
				skipped++
				continue
			}
		}
		contact := domain.CrmContact{
			ID:        common.UUIDint64(),
			TenantId:  tenantID,
			Name:      strings.TrimSpace(row.Name),
			Email:     row.Email,
			Phone:     row.Phone,
			Company:   row.Company,
			Position:  row.Position,
			Notes:     row.Notes,
			Status:    "active",
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := GetDB(c).Create(&contact).Error; err != nil {
			zap.L().Error("contact import row failed", zap.String("name", row.Name), zap.Error(err))
			skipped++
			continue
		}
		imported++
	}
	audit(c, "import_contacts", fmt.Sprintf("imported=%d skipped=%d", imported, skipped))
	return ok(c, map[string]interface{}{"imported": imported, "skipped": skipped})
}

// exportContacts streams the tenant's contacts as an xlsx workbook.
func exportContacts(c echo.Context) error {
	var contacts []domain.CrmContact
	if err := tenantScope(c, GetDB(c)).Order("id").Find(&contacts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query contacts", err.Error())
	}

	f := excelize.NewFile()
	sheet := "Contacts"
	idx := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Email", "Phone", "Company", "Position", "Status", "Notes", "Created"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%s1", excelize.ToAlphaString(i)), h)
	}
	for r, contact := range contacts {
		values := []interface{}{
			contact.Name, contact.Email, contact.Phone,
			contact.Company, contact.Position, contact.Status,
			contact.Notes, contact.CreatedAt.Format(time.RFC3339),
		}
		for i, v := range values {
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", excelize.ToAlphaString(i), r+2), v)
		}
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="contacts.xlsx"`)
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
