package crypto

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost стоимость bcrypt для хешей паролей
const PasswordCost = bcrypt.DefaultCost

// HashPassword хеширует пароль с использованием bcrypt
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// dummy хеш той же стоимости, что и настоящие; сравнение с ним всегда неуспешно
func dummy() []byte {
	dummyHashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("babysteps-no-password"), PasswordCost)
		if err != nil {
			panic(fmt.Sprintf("crypto: dummy bcrypt hash: %v", err))
		}
		dummyHash = h
	})
	return dummyHash
}

// VerifyPassword проверяет пароль против сохраненного bcrypt хеша
// Пустой хеш (OAuth аккаунт без пароля или неизвестный email) никогда не проходит проверку,
// но стоит столько же, сколько обычное сравнение
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummy(), []byte(password))
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Поврежденный хеш считаем несовпадением
		return false
	}

	return err == nil
}
