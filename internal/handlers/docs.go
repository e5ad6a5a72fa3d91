package handlers

import (
	"html/template"
	"net/http"
)

const apiDocsHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pong Game Server API</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: linear-gradient(135deg, #0f2027 0%, #2c5364 100%);
            min-height: 100vh;
            padding: 20px;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: white;
            border-radius: 12px;
            box-shadow: 0 20px 60px rgba(0, 0, 0, 0.3);
            overflow: hidden;
        }

        header {
            background: #16213e;
            color: white;
            padding: 40px;
            text-align: center;
        }

        h1 {
            font-size: 36px;
            margin-bottom: 10px;
        }

        .subtitle {
            color: rgba(255, 255, 255, 0.8);
            font-size: 17px;
        }

        main {
            padding: 40px;
        }

        section {
            margin-bottom: 40px;
        }

        h2 {
            font-size: 26px;
            margin-bottom: 16px;
            border-bottom: 2px solid #e9ecef;
            padding-bottom: 8px;
        }

        .endpoint {
            margin-bottom: 18px;
        }

        .method {
            display: inline-block;
            min-width: 54px;
            padding: 2px 10px;
            border-radius: 4px;
            font-weight: 700;
            font-size: 13px;
            text-align: center;
            color: white;
            margin-right: 8px;
        }

        .get  { background: #2e86de; }
        .post { background: #10ac84; }
        .ws   { background: #8e44ad; }

        code, pre {
            font-family: 'SF Mono', Consolas, Menlo, monospace;
            font-size: 13px;
        }

        pre {
            background: #f4f6f8;
            border-radius: 6px;
            padding: 14px;
            overflow-x: auto;
            margin-top: 8px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            margin-top: 10px;
        }

        th, td {
            text-align: left;
            padding: 8px 10px;
            border-bottom: 1px solid #e9ecef;
            font-size: 14px;
        }

        footer {
            background: #f8f9fa;
            text-align: center;
            padding: 20px;
            font-size: 13px;
            color: #666;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Pong Game Server</h1>
            <p class="subtitle">Real-time matchmaking, game sessions and tournament brackets</p>
        </header>

        <main>
            <section>
                <h2>WebSocket</h2>
                <div class="endpoint">
                    <span class="method ws">WS</span>
                    <code>/ws/game?playerId=&lt;id&gt;&amp;displayName=&lt;name&gt;</code>
                </div>
                <p>Identity is resolved upstream; the supplied player id is trusted.
                On connect the server sends a <code>welcome</code> event with live stats.
                All frames are JSON envelopes:</p>
                <pre>{ "type": "player_move", "payload": { "gameId": "game-...", "direction": "up", "timestamp": 1756684800000 } }</pre>

                <h2 style="font-size:20px;border:none;margin-top:24px">Client messages</h2>
                <table>
                    <tr><th>Type</th><th>Payload</th></tr>
                    <tr><td><code>matchmaking</code></td><td><code>{ action: "join"|"leave", gameType?: "classic"|"tournament" }</code></td></tr>
                    <tr><td><code>game_ready</code></td><td><code>{ gameId }</code></td></tr>
                    <tr><td><code>game_join</code></td><td><code>{ gameId?, gameType? }</code></td></tr>
                    <tr><td><code>player_move</code></td><td><code>{ gameId, direction: up|down|left|right, timestamp }</code></td></tr>
                    <tr><td><code>score_update</code></td><td><code>{ gameId, currentExp, timestamp }</code></td></tr>
                    <tr><td><code>match_end</code></td><td><code>{ gameId, player1Id, player2Id, player1Exp, player2Exp, matchDurationMs?, timestamp }</code></td></tr>
                    <tr><td><code>game_result</code></td><td><code>{ gameId, winnerId }</code></td></tr>
                    <tr><td><code>tournament_action</code></td><td><code>{ action: create|join|leave|start|get_info, tournamentId?, password?, tournamentData? }</code></td></tr>
                    <tr><td><code>get_tournaments</code></td><td><code>{}</code></td></tr>
                    <tr><td><code>ping</code></td><td><code>{}</code></td></tr>
                </table>
            </section>

            <section>
                <h2>Tournaments (REST)</h2>
                <div class="endpoint"><span class="method post">POST</span><code>/api/v1/tournament</code> — create a tournament</div>
                <div class="endpoint"><span class="method get">GET</span><code>/api/v1/tournament?playerId=</code> — list tournaments</div>
                <div class="endpoint"><span class="method get">GET</span><code>/api/v1/tournament/available</code> — tournaments open for joining</div>
                <div class="endpoint"><span class="method get">GET</span><code>/api/v1/tournament/{id}</code> — tournament snapshot</div>
                <div class="endpoint"><span class="method post">POST</span><code>/api/v1/tournament/{id}/join</code> — join</div>
                <div class="endpoint"><span class="method post">POST</span><code>/api/v1/tournament/{id}/leave</code> — leave</div>
                <div class="endpoint"><span class="method post">POST</span><code>/api/v1/tournament/{id}/start</code> — start (creator only)</div>
                <div class="endpoint"><span class="method post">POST</span><code>/api/v1/tournament/{id}/match/{matchId}/result</code> — report a match result</div>
                <pre>POST /api/v1/tournament
{
  "playerId": "player-1",
  "displayName": "Alice",
  "name": "Friday Night Pong",
  "maxPlayers": 8,
  "isPrivate": false
}</pre>
                <p>Business failures return <code>400</code> with <code>{ "error": "message" }</code>.</p>
            </section>

            <section>
                <h2>Monitoring</h2>
                <div class="endpoint"><span class="method get">GET</span><code>/health</code> — health probe</div>
                <div class="endpoint"><span class="method get">GET</span><code>/api/v1/stats</code> — live connection, session and tournament counts</div>
            </section>
        </main>

        <footer>
            <p>Pong Game Server Version 1.0.0</p>
        </footer>
    </div>
</body>
</html>`

func ServeAPIDocs(w http.ResponseWriter, r *http.Request) {
	tmpl := template.Must(template.New("docs").Parse(apiDocsHTML))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl.Execute(w, nil)
}
