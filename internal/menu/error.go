package menu

import "qrorder-be/internal/apperror"

var ErrMenuNotFound = apperror.New(apperror.KindNotFound, "MENU_NOT_FOUND", "menu not found")
