package mocks

//go:generate go run -v go.uber.org/mock/mockgen -destination=mockdriver.go -package=mocks github.com/ternarybob/guvitest/internal/browser Driver,Launcher
