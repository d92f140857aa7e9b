package templates

import "teamreports/models"

func minZero() *models.FieldValidation {
	zero := 0.0
	return &models.FieldValidation{Min: &zero}
}

// studentCountFields are shared by the activity templates.
func studentCountFields() []models.TemplateField {
	return []models.TemplateField{
		{ID: "event_name", Label: "Chora tadbir nomi*", Type: models.FieldText, Required: true, Placeholder: "Enter event name"},
		{ID: "start_date", Label: "Chora tadbir sanasi (boshlangan)*", Type: models.FieldDate, Required: true},
		{ID: "end_date", Label: "Chora tadbir sanasi (tugallangan)*", Type: models.FieldDate, Required: true},
		{ID: "total_students", Label: "Chora-tadbirga jalb qilingan talabalar soni (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Enter total number of students", Validation: minZero()},
		{ID: "first_year", Label: "Shundan birinchi bosqich (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of first year students", Validation: minZero()},
		{ID: "second_year", Label: "Shundan ikkinchi bosqich (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of second year students", Validation: minZero()},
		{ID: "third_year", Label: "Shundan uchinchi bosqich (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of third year students", Validation: minZero()},
		{ID: "fourth_year", Label: "Shundan to'rtinchi bosqich (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of fourth year students", Validation: minZero()},
		{ID: "masters", Label: "Shundan magistrantlar (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of master's students", Validation: minZero()},
		{ID: "male_students", Label: "Shundan o'g'il bolalar (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of male students", Validation: minZero()},
		{ID: "female_students", Label: "Shundan qiz bolalar (faqat son kiritiladi)", Type: models.FieldNumber, Required: true, Placeholder: "Number of female students", Validation: minZero()},
	}
}

// DefaultCatalog returns the built-in report templates in display order.
func DefaultCatalog() []models.Template {
	return []models.Template{
		{
			ID:          "student_activity_template",
			Key:         "student_activity",
			Name:        "Student Activity Report",
			Description: "Chora-tadbirga talabalar jalb qilinmagan bo'lsa talabalar soniga doir bandlar to'ldirilmaydi.",
			Fields:      studentCountFields(),
		},
		{
			ID:          "youth_work_department_template",
			Key:         "youth_work",
			Name:        "Yoshlar bilan ishlash bo'limi",
			Description: "Talabalar bilan ishlashni taqozo etmagan chora-tadbirlarga talabalar soni kiritilmaydi.",
			Fields:      studentCountFields(),
		},
		{
			ID:          "general_report_template",
			Key:         "general",
			Name:        "General Report",
			Description: "Basic report template with title and description",
			Fields: []models.TemplateField{
				{ID: "title", Label: "Report Title*", Type: models.FieldText, Required: true, Placeholder: "Enter report title"},
				{ID: "description", Label: "Description*", Type: models.FieldTextarea, Required: true, Placeholder: "Describe the report details"},
				{ID: "date", Label: "Report Date*", Type: models.FieldDate, Required: true},
			},
		},
	}
}
