package models

// ContactRecord 紧急联系人，仅在保存时构造并发送，客户端不保留副本
type ContactRecord struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SaveContactsRequest 发往 /save-contacts 的请求体
type SaveContactsRequest struct {
	UserID   int             `json:"userId"`
	Contacts []ContactRecord `json:"contacts"`
}

// NewSaveContactsRequest 构造仅含一个联系人的请求
func NewSaveContactsRequest(userID int, name, phone string) SaveContactsRequest {
	return SaveContactsRequest{
		UserID:   userID,
		Contacts: []ContactRecord{{Name: name, Phone: phone}},
	}
}
