package contract

const validSummary = `{
  "summaries": [{
    "fightLabel": "Alex Pereira vs Jiri Prochazka",
    "score": 82,
    "rank": "#1 Highest EV",
    "recommendedBet": "Pereira ML",
    "expectedValue": "+12.5%",
    "trueVsMarket": "68% vs 61%",
    "confidence": "High",
    "risk": "Prochazka's chaos early",
    "tier": "A"
  }]
}`

const validBreakdown = `{
  "breakdowns": [{
    "fightLabel": "Alex Pereira vs Jiri Prochazka",
    "edge": 7.2,
    "expectedValue": "+12.5%",
    "score": 82,
    "trueLine": {"fighter": "Alex Pereira", "odds": -213, "prob": 0.68},
    "marketLine": {"fighter": "Alex Pereira", "odds": "-157", "prob": "61%"},
    "mispricing": "Market underrates Pereira's power",
    "recommendedBet": "Pereira ML",
    "betExpectedValue": "+12.5%",
    "confidence": "High",
    "risk": "Medium",
    "stake": "2%",
    "fighter1": {"name": "Alex Pereira", "notes": ["Elite left hook"]},
    "fighter2": {"name": "Jiri Prochazka", "notes": ["Unorthodox", "Defensive lapses"]},
    "pathsToVictory": [{"path": "Pereira KO", "probability": "55%"}],
    "whyLineExists": ["Recency bias from the first fight"]
  }]
}`
