package handlers

const (
	msgInvalidBody   = "بيانات الطلب غير صالحة"
	msgInvalidAction = "إجراء غير صالح"
	msgDatabaseDown  = "قاعدة البيانات غير متاحة"
)
