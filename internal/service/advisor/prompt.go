package advisor

import (
	"fmt"
)

func buildPrompt(s Snapshot) string {
	return fmt.Sprintf("你是一个专业的加密货币交易顾问, 请根据以下市场数据给出交易建议。\n\n"+
		"【当前市场数据】\n"+
		"- 交易对: %s\n"+
		"- 当前价格: %s\n"+
		"- 24h涨跌幅: %s%%\n"+
		"- 24h最高价: %s\n"+
		"- 24h最低价: %s\n"+
		"- 当前持仓: %s %s\n"+
		"- 可用余额: %s %s\n\n"+
		"【决策要求】\n"+
		"1. 分析当前市场趋势(上涨/下跌/震荡)\n"+
		"2. 评估入场时机(买入/卖出/等待)\n"+
		"3. 给出决策置信度(0.0-1.0)\n\n"+
		"【回复格式(严格JSON)】\n"+
		"{\"action\": \"buy\" | \"sell\" | \"wait\", \"reasoning\": \"分析理由(50字以内)\", \"confidence\": 0.75}\n"+
		"只返回JSON, 不要其他文字",
		s.Symbol,
		s.Price.StringFixed(2),
		s.ChangePct.StringFixed(2),
		s.High.StringFixed(2),
		s.Low.StringFixed(2),
		s.Position, s.Base,
		s.QuoteBalance.StringFixed(2), s.Quote,
	)
}
