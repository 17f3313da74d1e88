package service

import (
	"context"
	"errors"
	"math/rand"

	"bankcore/internal/model"
	"bankcore/internal/repository"
)

// ============================================================================
// 账号 / 网点号生成器
// ============================================================================
//
// 【为什么不用自增 ID？】
//
// 账号对外可见，自增号会暴露业务量，且格式上要求固定 6 位。
// 做法：在取值域内均匀随机取一个候选号，查已分配集合判重，
// 撞号就重新取，最多重试 maxAttempts 次。
//
// 【为什么内存判重还不够？】
//
// 两个并发开户请求可能同时取到同一个号并双双通过判重（check-then-act
// 竞态）。唯一性的最终权威是数据库唯一索引：插入时撞索引同样按
// 碰撞处理、触发重取（见 AccountService.OpenAccount），不是致命错误。
//
// 【为什么有重试上限？】
//
// 号段是有限的（账号 9 x 10^5 个，网点号 9 x 10^3 个），填充率越高
// 撞号概率越大。与其在临近饱和时无限空转，不如显式快速失败，
// 把 ErrGenerationExhausted 当作运维信号暴露出去。
//
// ============================================================================

var ErrGenerationExhausted = errors.New("取号重试次数耗尽，号段接近饱和")

const defaultNumberGenMaxAttempts = 20

// AccountNumberGenerator 生成全局唯一的账号与网点号，两个域各自独立判重。
type AccountNumberGenerator struct {
	accountRepo *repository.AccountRepository
	maxAttempts int
	// 可注入的随机源，便于测试；默认用全局 math/rand。
	randInt63n func(n int64) int64
}

func NewAccountNumberGenerator(accountRepo *repository.AccountRepository, maxAttempts int) *AccountNumberGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultNumberGenMaxAttempts
	}
	return &AccountNumberGenerator{
		accountRepo: accountRepo,
		maxAttempts: maxAttempts,
		randInt63n:  rand.Int63n,
	}
}

// GenerateAccountNumber 取一个未被占用的 6 位账号。
func (g *AccountNumberGenerator) GenerateAccountNumber(ctx context.Context) (int64, error) {
	return g.generate(ctx, model.AccountNumberMin, model.AccountNumberMax, g.accountRepo.ExistsByNumber)
}

// GenerateAgencyNumber 取一个未被占用的 4 位网点号。
func (g *AccountNumberGenerator) GenerateAgencyNumber(ctx context.Context) (int64, error) {
	return g.generate(ctx, model.AgencyNumberMin, model.AgencyNumberMax, g.accountRepo.ExistsByAgency)
}

func (g *AccountNumberGenerator) generate(ctx context.Context, min, max int64, exists func(context.Context, int64) (bool, error)) (int64, error) {
	for i := 0; i < g.maxAttempts; i++ {
		candidate := min + g.randInt63n(max-min+1)
		taken, err := exists(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
	}
	return 0, ErrGenerationExhausted
}
