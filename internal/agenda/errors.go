package agenda

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marca erros de validação: campos obrigatórios ausentes,
// quantidade fora do intervalo, conjunto de dias vazio. Nenhuma escrita acontece
// depois de um erro desse tipo.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrConflict é o sentinel de conflito de horário; use errors.Is para detectar
// e errors.As com *ConflictError para obter a sugestão.
var ErrConflict = errors.New("horário já ocupado")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, args...)...)
}

// ConflictError indica que (date, time) já está ocupado por outra sessão.
// SuggestedTime é a próxima hora cheia com os mesmos minutos; é uma única
// sugestão, que pode por sua vez conflitar — o sistema não procura um horário livre.
type ConflictError struct {
	Date          string
	Time          string
	SuggestedTime string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("já existe uma sessão em %s às %s (sugestão: %s)", e.Date, e.Time, e.SuggestedTime)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// StoreError embrulha uma falha de infraestrutura (banco, rede) de uma operação
// individual. Não há retry automático; o erro sobe uma vez até o usuário.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// BatchError é uma falha parcial em um lote recorrente: parte das ocorrências
// foi criada, parte falhou. As criadas permanecem — não há rollback.
type BatchError struct {
	Requested int
	Created   int
	Errs      []error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("lote parcialmente criado: %d de %d sessões (%d falhas)", e.Created, e.Requested, len(e.Errs))
}
