package editor

import "github.com/ativix/ativix/internal/domain/model"

// Os predicados abaixo só escondem botões; o servidor valida de novo.

// CanConclude: qualquer usuário logado, em atividade pendente
func CanConclude(u *model.User, a *model.Activity) bool {
	return u != nil && a != nil && a.IsPending()
}

// CanAssign: ADMIN, em atividade pendente
func CanAssign(u *model.User, a *model.Activity) bool {
	return u.IsAdmin() && a != nil && a.IsPending()
}

func CanDelete(u *model.User) bool {
	return u.IsAdmin()
}

func CanEditComment(u *model.User, c *model.Comment) bool {
	return c != nil && c.CanEdit(u)
}

func CanDeleteComment(u *model.User, c *model.Comment) bool {
	return c != nil && c.CanDelete(u)
}
