package server

// dashboardHTML is the single-page dashboard served at /. It talks to the
// JSON API and follows scan progress over the WebSocket endpoint.
const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>dbsec dashboard</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 0; background: #f6f8fa; color: #1f2328; }
  header { background: #24292f; color: #fff; padding: 14px 24px; display: flex; align-items: baseline; gap: 12px; }
  header h1 { font-size: 18px; margin: 0; }
  header span { color: #8b949e; font-size: 13px; }
  main { max-width: 960px; margin: 24px auto; padding: 0 16px; }
  .cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 12px; }
  .card { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 14px 16px; }
  .card .num { font-size: 26px; font-weight: 600; }
  .card .label { color: #57606a; font-size: 12px; text-transform: uppercase; }
  .card.high .num { color: #cf222e; }
  .card.medium .num { color: #9a6700; }
  section { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; margin-top: 20px; padding: 16px; }
  section h2 { font-size: 15px; margin: 0 0 12px; }
  table { border-collapse: collapse; width: 100%; font-size: 13px; }
  th, td { border-bottom: 1px solid #d8dee4; padding: 6px 10px; text-align: left; }
  th { color: #57606a; font-weight: 600; }
  textarea, input { font-family: inherit; font-size: 13px; padding: 6px 8px; border: 1px solid #d0d7de; border-radius: 6px; }
  textarea { width: 100%; box-sizing: border-box; height: 64px; }
  button { background: #1f883d; color: #fff; border: 0; border-radius: 6px; padding: 7px 14px; font-size: 13px; cursor: pointer; }
  button:disabled { background: #94d3a2; }
  #progress { font-family: ui-monospace, monospace; font-size: 12px; color: #57606a; white-space: pre-wrap; max-height: 180px; overflow-y: auto; }
  .status-completed { color: #1a7f37; }
  .status-failed { color: #cf222e; }
  .status-running { color: #9a6700; }
</style>
</head>
<body>
<header><h1>dbsec</h1><span>database security scanner</span></header>
<main>
  <div class="cards">
    <div class="card"><div class="num" id="stat-scans">0</div><div class="label">Scans</div></div>
    <div class="card"><div class="num" id="stat-findings">0</div><div class="label">Findings</div></div>
    <div class="card high"><div class="num" id="stat-high">0</div><div class="label">High</div></div>
    <div class="card medium"><div class="num" id="stat-medium">0</div><div class="label">Medium</div></div>
    <div class="card"><div class="num" id="stat-cache">0</div><div class="label">Cache hits</div></div>
  </div>

  <section>
    <h2>New scan</h2>
    <textarea id="targets" placeholder="one file or directory per line"></textarea>
    <div style="margin-top:8px; display:flex; gap:8px; align-items:center;">
      <input id="workers" type="number" min="0" placeholder="workers (auto)" style="width:130px">
      <button id="start">Start scan</button>
    </div>
    <div id="progress" style="margin-top:10px"></div>
  </section>

  <section>
    <h2>Recent scans</h2>
    <table>
      <thead><tr><th>ID</th><th>Status</th><th>Files</th><th>High</th><th>Medium</th><th>Low</th><th>Cache</th><th>Started</th></tr></thead>
      <tbody id="scan-rows"></tbody>
    </table>
  </section>
</main>
<script>
async function refresh() {
  const stats = await fetch('/api/stats').then(r => r.json());
  document.getElementById('stat-scans').textContent = stats.scan_count ?? 0;
  document.getElementById('stat-findings').textContent = stats.finding_count ?? 0;
  document.getElementById('stat-high').textContent = stats.high_count ?? 0;
  document.getElementById('stat-medium').textContent = stats.medium_count ?? 0;

  const cache = await fetch('/api/cache/stats').then(r => r.json());
  document.getElementById('stat-cache').textContent = cache.hits ?? 0;

  const scans = await fetch('/api/scans/recent').then(r => r.json());
  const rows = scans.map(s =>
    '<tr><td>' + s.id + '</td><td class="status-' + s.status + '">' + s.status +
    '</td><td>' + s.files_scanned + '</td><td>' + s.high + '</td><td>' + s.medium +
    '</td><td>' + s.low + '</td><td>' + s.cache_hits + '/' + (s.cache_hits + s.cache_misses) +
    '</td><td>' + (s.started_at ? new Date(s.started_at).toLocaleString() : '-') + '</td></tr>');
  document.getElementById('scan-rows').innerHTML = rows.join('');
}

function follow(scanID) {
  const log = document.getElementById('progress');
  const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  const ws = new WebSocket(proto + location.host + '/ws');
  ws.onopen = () => ws.send(JSON.stringify({scan_id: scanID}));
  ws.onmessage = ev => {
    const msg = JSON.parse(ev.data);
    if (msg.stage === 'scanning') {
      log.textContent = 'scanning ' + msg.done + '/' + msg.total + (msg.cached ? ' (cached) ' : ' ') + (msg.path || '');
    } else {
      log.textContent = msg.stage + (msg.message ? ': ' + msg.message : '') +
        (msg.findings ? ' (' + msg.findings + ' findings)' : '');
    }
    if (msg.finished) { ws.close(); refresh(); }
  };
}

document.getElementById('start').addEventListener('click', async () => {
  const targets = document.getElementById('targets').value.split('\n').map(t => t.trim()).filter(Boolean);
  if (!targets.length) return;
  const workers = parseInt(document.getElementById('workers').value) || 0;
  const resp = await fetch('/api/scans', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({targets, workers}),
  });
  const scan = await resp.json();
  if (!resp.ok) {
    document.getElementById('progress').textContent = scan.error || 'scan failed to start';
    return;
  }
  follow(scan.id);
  refresh();
});

refresh();
setInterval(refresh, 10000);
</script>
</body>
</html>
`
