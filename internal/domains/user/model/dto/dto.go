package dto

import (
	"messbook/internal/domains/user/model"
	"messbook/permissions"
	"messbook/shared"
	"messbook/shared/constant"
	gDto "messbook/shared/dto"
	"messbook/shared/timezone"
)

type UserResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email"`
	Mobile    string           `json:"mobile"`
	Role      permissions.Role `json:"role"`
	IsActive  bool             `json:"is_active"`
	LastLogin string           `json:"last_login,omitempty"`
	gDto.Metadata
}

func (r *UserResponse) FromModel(model model.User) {
	r.ID = model.ID
	r.Name = model.Name
	r.Email = model.Email
	r.Mobile = model.Mobile
	r.Role = model.Role
	r.IsActive = model.IsActive

	if model.LastLogin != nil {
		r.LastLogin = timezone.Format(*model.LastLogin, constant.DateFormat)
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetUsersResponse struct {
	Users     []UserResponse `json:"users"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetUsersResponse) FromModels(models []model.User, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Users = make([]UserResponse, len(models))
	for i, mod := range models {
		r.Users[i].FromModel(mod)
	}
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user owner admin"`
}

type UpdateRoleRequest struct {
	Role permissions.Role `db:"role"`
}

// UserFilter narrows the admin user list; empty fields are ignored.
type UserFilter struct {
	Email string
	Role  string
}

func (f UserFilter) ToFilterGroup() gDto.FilterGroup {
	group := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	if f.Email != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldEmail,
			Operator: gDto.FilterOperatorLike,
			Value:    f.Email,
			Table:    model.TableName,
		})
	}

	if f.Role != "" {
		group.Filters = append(group.Filters, gDto.Filter{
			Field:    model.FieldRole,
			Operator: gDto.FilterOperatorEq,
			Value:    f.Role,
			Table:    model.TableName,
		})
	}

	return group
}
