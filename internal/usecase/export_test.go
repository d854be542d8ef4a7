package usecase

// NewAuthUsecaseWithCost lets tests use a cheap bcrypt cost.
var NewAuthUsecaseWithCost = newAuthUsecase
